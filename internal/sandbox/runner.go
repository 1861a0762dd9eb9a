package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	specs "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/raziquehasan/Placement-Ai-Interview-sub000/internal/models"
)

type Language string

const (
	LangPython Language = "python"
	LangJava   Language = "java"
	LangCPP    Language = "cpp"
)

// CaseResult is the outcome of one executed test case.
type CaseResult struct {
	Index      int    `json:"index"`
	Passed     bool   `json:"passed"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	TimedOut   bool   `json:"timed_out"`
	DurationMs int64  `json:"duration_ms"`
}

// Runner executes a coding submission against its test cases in isolation.
type Runner interface {
	RunTests(ctx context.Context, lang Language, code string, cases []models.TestCase) ([]CaseResult, error)
}

// PassRate is the fraction of passed cases in [0,1]; an empty run is 0.
func PassRate(results []CaseResult) float64 {
	if len(results) == 0 {
		return 0
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(results))
}

type Limits struct {
	WallTime time.Duration
	MemoryB  int64
	NanoCPUs int64
}

type dockerClient interface {
	ImageInspectWithRaw(ctx context.Context, image string) (types.ImageInspect, []byte, error)
	ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (container.ContainerCreateCreatedBody, error)
	ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error
	ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error
	ContainerKill(ctx context.Context, containerID string, signal string) error
	ContainerExecCreate(ctx context.Context, container string, config types.ExecConfig) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config types.ExecStartCheck) (types.HijackedResponse, error)
	ContainerExecStart(ctx context.Context, execID string, config types.ExecStartCheck) error
	ContainerExecInspect(ctx context.Context, execID string) (types.ContainerExecInspect, error)
}

var newDockerClient = func() (dockerClient, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

var ErrDockerUnavailable = errors.New("docker daemon unreachable")
var ErrUnsupportedLanguage = errors.New("unsupported language")

// DockerRunner runs each submission in a fresh container: write the source
// file once, run the compile step if any, then exec the program once per
// test case with the case input on stdin.
type DockerRunner struct {
	cli    dockerClient
	limits Limits
}

func NewDockerRunner(limits Limits) (*DockerRunner, error) {
	cli, err := newDockerClient()
	if err != nil {
		return nil, translateDockerErr(err)
	}
	if limits.WallTime <= 0 {
		limits.WallTime = 10 * time.Second
	}
	if limits.MemoryB == 0 {
		limits.MemoryB = 512 * 1024 * 1024
	}
	if limits.NanoCPUs == 0 {
		limits.NanoCPUs = 1_000_000_000
	}
	return &DockerRunner{cli: cli, limits: limits}, nil
}

func (r *DockerRunner) RunTests(ctx context.Context, lang Language, code string, cases []models.TestCase) ([]CaseResult, error) {
	spec, err := langSpec(lang)
	if err != nil {
		return nil, err
	}

	if err := r.ensureImage(ctx, spec.Image); err != nil {
		return nil, err
	}

	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   r.limits.MemoryB,
			NanoCPUs: r.limits.NanoCPUs,
		},
		SecurityOpt: []string{"no-new-privileges"},
	}

	conf := &container.Config{
		Image:      spec.Image,
		Cmd:        []string{"/bin/sh", "-c", "sleep infinity"},
		Tty:        false,
		WorkingDir: "/workspace",
		Env:        []string{"PYTHONDONTWRITEBYTECODE=1"},
	}

	create, err := r.cli.ContainerCreate(ctx, conf, hostCfg, nil, nil, "")
	if err != nil {
		return nil, translateDockerErr(err)
	}
	cid := create.ID
	defer func() {
		_ = r.cli.ContainerRemove(context.Background(), cid, types.ContainerRemoveOptions{Force: true})
	}()

	if err := r.cli.ContainerStart(ctx, cid, types.ContainerStartOptions{}); err != nil {
		return nil, translateDockerErr(err)
	}

	if err := r.writeFile(ctx, cid, "/workspace/"+spec.FileName, []byte(code)); err != nil {
		return nil, err
	}

	if len(spec.CompileCmd) > 0 {
		exit, stderr, err := r.execOnce(ctx, cid, spec.CompileCmd, nil)
		if err != nil {
			return nil, err
		}
		if exit != 0 {
			// Compilation failure fails every case with the compiler output.
			results := make([]CaseResult, len(cases))
			for i := range cases {
				results[i] = CaseResult{Index: i, Passed: false, Stderr: stderr, ExitCode: exit}
			}
			return results, nil
		}
	}

	results := make([]CaseResult, 0, len(cases))
	for i, tc := range cases {
		caseCtx, cancel := context.WithTimeout(ctx, r.limits.WallTime)
		start := time.Now()
		exit, stdout, stderr, runErr := r.execCase(caseCtx, cid, spec.RunCmd, []byte(tc.Input))
		cancel()

		res := CaseResult{
			Index:      i,
			Stdout:     stdout,
			Stderr:     stderr,
			ExitCode:   exit,
			TimedOut:   errors.Is(runErr, context.DeadlineExceeded),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if runErr != nil && !res.TimedOut {
			return nil, runErr
		}
		res.Passed = !res.TimedOut && exit == 0 &&
			strings.TrimSpace(stdout) == strings.TrimSpace(tc.Expected)
		results = append(results, res)
	}
	return results, nil
}

func (r *DockerRunner) ensureImage(ctx context.Context, image string) error {
	_, _, err := r.cli.ImageInspectWithRaw(ctx, image)
	if err == nil {
		return nil
	}
	if client.IsErrNotFound(err) {
		pullCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		reader, pullErr := r.cli.ImagePull(pullCtx, image, types.ImagePullOptions{})
		if pullErr != nil {
			return translateDockerErr(pullErr)
		}
		defer reader.Close()
		_, _ = io.Copy(io.Discard, reader)
		return nil
	}
	return translateDockerErr(err)
}

func (r *DockerRunner) writeFile(ctx context.Context, cid, absPath string, content []byte) error {
	writeCmd := []string{"/bin/sh", "-c", fmt.Sprintf("cat > %s", shellQuote(absPath))}
	exit, _, _, err := r.execCase(ctx, cid, writeCmd, content)
	if err != nil {
		return err
	}
	if exit != 0 {
		return fmt.Errorf("write failed (%s) exit=%d", absPath, exit)
	}
	return nil
}

// execOnce runs a command without stdin and captures stderr only.
func (r *DockerRunner) execOnce(ctx context.Context, cid string, cmd []string, stdin []byte) (int, string, error) {
	exit, _, stderr, err := r.execCase(ctx, cid, cmd, stdin)
	return exit, stderr, err
}

func (r *DockerRunner) execCase(ctx context.Context, cid string, cmd []string, stdin []byte) (exit int, stdout, stderr string, err error) {
	execResp, err := r.cli.ContainerExecCreate(ctx, cid, types.ExecConfig{
		Cmd:          cmd,
		WorkingDir:   "/workspace",
		AttachStdout: true,
		AttachStderr: true,
		AttachStdin:  len(stdin) > 0,
		Tty:          false,
	})
	if err != nil {
		return -1, "", "", translateDockerErr(err)
	}
	attach, err := r.cli.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{Tty: false})
	if err != nil {
		return -1, "", "", translateDockerErr(err)
	}
	defer attach.Close()
	if err := r.cli.ContainerExecStart(ctx, execResp.ID, types.ExecStartCheck{Tty: false}); err != nil {
		return -1, "", "", translateDockerErr(err)
	}

	if len(stdin) > 0 {
		if _, err := attach.Conn.Write(stdin); err != nil {
			return -1, "", "", err
		}
		if closer, ok := attach.Conn.(interface{ CloseWrite() error }); ok {
			_ = closer.CloseWrite()
		}
	}

	var outBuf, errBuf strings.Builder
	copyDone := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(&outBuf, &errBuf, attach.Reader)
		close(copyDone)
	}()

	select {
	case <-copyDone:
	case <-ctx.Done():
		_ = r.cli.ContainerKill(context.Background(), cid, "SIGKILL")
		<-copyDone
		return -1, outBuf.String(), errBuf.String(), ctx.Err()
	}

	inspect, err := r.cli.ContainerExecInspect(context.Background(), execResp.ID)
	if err != nil {
		return -1, outBuf.String(), errBuf.String(), translateDockerErr(err)
	}
	return inspect.ExitCode, outBuf.String(), errBuf.String(), nil
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

func translateDockerErr(err error) error {
	if err == nil {
		return nil
	}
	if client.IsErrConnectionFailed(err) {
		return ErrDockerUnavailable
	}
	return err
}

type languageSpec struct {
	Image      string
	FileName   string
	CompileCmd []string
	RunCmd     []string
}

func langSpec(lang Language) (languageSpec, error) {
	switch lang {
	case LangPython:
		return languageSpec{
			Image:    "python:3.11-slim",
			FileName: "main.py",
			RunCmd:   []string{"python3", "main.py"},
		}, nil
	case LangJava:
		return languageSpec{
			Image:      "eclipse-temurin:17-jdk",
			FileName:   "Main.java",
			CompileCmd: []string{"javac", "Main.java"},
			RunCmd:     []string{"/bin/sh", "-c", "java Main"},
		}, nil
	case LangCPP:
		return languageSpec{
			Image:      "gcc:13",
			FileName:   "main.cpp",
			CompileCmd: []string{"g++", "-O2", "-std=c++17", "main.cpp", "-o", "main"},
			RunCmd:     []string{"./main"},
		}, nil
	default:
		return languageSpec{}, ErrUnsupportedLanguage
	}
}

// WarmImages pre-pulls the language images so the first coding submission
// does not pay the pull latency.
func WarmImages(ctx context.Context, langs ...Language) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(langs) == 0 {
		langs = []Language{LangPython, LangJava, LangCPP}
	}
	for _, lang := range langs {
		spec, err := langSpec(lang)
		if err != nil {
			return err
		}
		runner, err := NewDockerRunner(Limits{})
		if err != nil {
			return err
		}
		if closer, ok := runner.cli.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		if err := runner.ensureImage(ctx, spec.Image); err != nil {
			return fmt.Errorf("warm %s: %w", lang, err)
		}
	}
	return nil
}
