package rounds

import "errors"

var (
	// ErrInvalidItem rejects a submission whose item id is not the round's
	// current item: stale clients, duplicates and out-of-order submits all
	// land here without mutating state.
	ErrInvalidItem = errors.New("submitted item is not the current item")

	// ErrRoundNotStarted rejects submissions to a round that was never
	// started.
	ErrRoundNotStarted = errors.New("round not started")

	// ErrRoundCompleted rejects submissions to a sealed round.
	ErrRoundCompleted = errors.New("round already completed")

	// ErrDeadlineExceeded marks a submission that arrived after the
	// round-level deadline; the round is force-completed.
	ErrDeadlineExceeded = errors.New("round deadline exceeded")

	// ErrUnknownRound is returned for a round kind with no configuration.
	ErrUnknownRound = errors.New("unknown round kind")
)
