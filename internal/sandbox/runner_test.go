package sandbox

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

func TestPassRate(t *testing.T) {
	tests := []struct {
		name    string
		results []CaseResult
		want    float64
	}{
		{"empty run", nil, 0},
		{"all passed", []CaseResult{{Passed: true}, {Passed: true}}, 1},
		{"half passed", []CaseResult{{Passed: true}, {Passed: false}}, 0.5},
		{"none passed", []CaseResult{{Passed: false}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PassRate(tt.results); got != tt.want {
				t.Fatalf("PassRate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLangSpec(t *testing.T) {
	python, err := langSpec(LangPython)
	if err != nil {
		t.Fatalf("python spec failed: %v", err)
	}
	if python.FileName != "main.py" || len(python.CompileCmd) != 0 {
		t.Fatalf("unexpected python spec: %+v", python)
	}

	java, err := langSpec(LangJava)
	if err != nil {
		t.Fatalf("java spec failed: %v", err)
	}
	if len(java.CompileCmd) == 0 {
		t.Fatal("expected java to have a compile step")
	}

	cpp, err := langSpec(LangCPP)
	if err != nil {
		t.Fatalf("cpp spec failed: %v", err)
	}
	if len(cpp.CompileCmd) == 0 {
		t.Fatal("expected cpp to have a compile step")
	}

	if _, err := langSpec(Language("cobol")); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestRunTestsUnsupportedLanguage(t *testing.T) {
	r := &DockerRunner{}
	if _, err := r.RunTests(context.Background(), Language("brainfuck"), "++", nil); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "''"},
		{"/workspace/main.py", "'/workspace/main.py'"},
		{"it's", "'it'\\''s'"},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Fatalf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTranslateDockerErrPassesThrough(t *testing.T) {
	if translateDockerErr(nil) != nil {
		t.Fatal("expected nil passthrough")
	}
	plain := errors.New("plain failure")
	if translateDockerErr(plain) != plain {
		t.Fatal("expected unrelated errors passed through")
	}
}

// nopDockerClient satisfies the narrow client interface with zero values;
// only used to exercise constructor defaulting.
type nopDockerClient struct{}

func (nopDockerClient) ImageInspectWithRaw(context.Context, string) (types.ImageInspect, []byte, error) {
	return types.ImageInspect{}, nil, nil
}
func (nopDockerClient) ImagePull(context.Context, string, types.ImagePullOptions) (io.ReadCloser, error) {
	return nil, nil
}
func (nopDockerClient) ContainerCreate(context.Context, *container.Config, *container.HostConfig, *network.NetworkingConfig, *specs.Platform, string) (container.ContainerCreateCreatedBody, error) {
	return container.ContainerCreateCreatedBody{}, nil
}
func (nopDockerClient) ContainerRemove(context.Context, string, types.ContainerRemoveOptions) error {
	return nil
}
func (nopDockerClient) ContainerStart(context.Context, string, types.ContainerStartOptions) error {
	return nil
}
func (nopDockerClient) ContainerKill(context.Context, string, string) error { return nil }
func (nopDockerClient) ContainerExecCreate(context.Context, string, types.ExecConfig) (types.IDResponse, error) {
	return types.IDResponse{}, nil
}
func (nopDockerClient) ContainerExecAttach(context.Context, string, types.ExecStartCheck) (types.HijackedResponse, error) {
	return types.HijackedResponse{}, nil
}
func (nopDockerClient) ContainerExecStart(context.Context, string, types.ExecStartCheck) error {
	return nil
}
func (nopDockerClient) ContainerExecInspect(context.Context, string) (types.ContainerExecInspect, error) {
	return types.ContainerExecInspect{}, nil
}

func TestNewDockerRunnerAppliesDefaultLimits(t *testing.T) {
	orig := newDockerClient
	defer func() { newDockerClient = orig }()
	newDockerClient = func() (dockerClient, error) { return nopDockerClient{}, nil }

	r, err := NewDockerRunner(Limits{})
	if err != nil {
		t.Fatalf("constructor failed: %v", err)
	}
	if r.limits.WallTime != 10*time.Second {
		t.Fatalf("expected default wall time, got %v", r.limits.WallTime)
	}
	if r.limits.MemoryB != 512*1024*1024 {
		t.Fatalf("expected default memory limit, got %d", r.limits.MemoryB)
	}
	if r.limits.NanoCPUs != 1_000_000_000 {
		t.Fatalf("expected default cpu limit, got %d", r.limits.NanoCPUs)
	}
}

func TestNewDockerRunnerClientFailure(t *testing.T) {
	orig := newDockerClient
	defer func() { newDockerClient = orig }()
	clientErr := errors.New("no socket")
	newDockerClient = func() (dockerClient, error) { return nil, clientErr }

	if _, err := NewDockerRunner(Limits{}); !errors.Is(err, clientErr) {
		t.Fatalf("expected client error surfaced, got %v", err)
	}
}
