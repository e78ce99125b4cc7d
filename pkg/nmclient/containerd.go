package nmclient

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/events"
	"github.com/cuemby/hoyamaster/pkg/log"
)

// DefaultNamespace is the containerd namespace this AM's containers run
// under, keeping them out of any other tenant's namespace on the node.
const DefaultNamespace = "hoyamaster"

// DefaultSocketPath is the default containerd socket on a node-manager
// host.
const DefaultSocketPath = "/run/containerd/containerd.sock"

// ContainerdClient is the concrete NM Client Adapter backed by
// containerd (DOMAIN STACK), adapted from this codebase's worker-side
// container runtime wrapper.
type ContainerdClient struct {
	client    *containerd.Client
	namespace string
	sink      events.Sink
}

// NewContainerdClient connects to containerd at socketPath and returns a
// Client that publishes start/stop/status callbacks onto sink.
func NewContainerdClient(socketPath string, sink events.Sink) (*ContainerdClient, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	cl, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to containerd at %s: %w", socketPath, err)
	}
	return &ContainerdClient{client: cl, namespace: DefaultNamespace, sink: sink}, nil
}

func (c *ContainerdClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *ContainerdClient) StartContainer(ctx context.Context, container clusterdesc.Container, launch LaunchContext) error {
	go func() {
		id := container.ID
		logger := log.WithContainerID(string(id))

		cctx := namespaces.WithNamespace(context.Background(), c.namespace)

		image, err := c.client.Pull(cctx, launch.Image, containerd.WithPullUnpack)
		if err != nil {
			logger.Error().Err(err).Msg("pull image failed")
			c.sink.Publish(events.Event{Kind: events.KindContainerStartError, ContainerID: id, Err: err})
			return
		}

		var env []string
		for k, v := range launch.Env {
			env = append(env, k+"="+v)
		}

		opts := []oci.SpecOpts{
			oci.WithImageConfig(image),
			oci.WithEnv(env),
			oci.WithProcessArgs(launch.Command...),
		}
		if launch.Resources.MemoryMB > 0 {
			opts = append(opts, oci.WithMemoryLimit(uint64(launch.Resources.MemoryMB)*1024*1024))
		}

		ctrdContainer, err := c.client.NewContainer(
			cctx, string(id),
			containerd.WithImage(image),
			containerd.WithNewSnapshot(string(id)+"-snapshot", image),
			containerd.WithNewSpec(opts...),
		)
		if err != nil {
			logger.Error().Err(err).Msg("create container failed")
			c.sink.Publish(events.Event{Kind: events.KindContainerStartError, ContainerID: id, Err: err})
			return
		}

		task, err := ctrdContainer.NewTask(cctx, cio.NullIO)
		if err != nil {
			logger.Error().Err(err).Msg("create task failed")
			c.sink.Publish(events.Event{Kind: events.KindContainerStartError, ContainerID: id, Err: err})
			return
		}
		if err := task.Start(cctx); err != nil {
			logger.Error().Err(err).Msg("start task failed")
			c.sink.Publish(events.Event{Kind: events.KindContainerStartError, ContainerID: id, Err: err})
			return
		}

		c.sink.Publish(events.Event{Kind: events.KindContainerStarted, ContainerID: id})
	}()
	return nil
}

func (c *ContainerdClient) StopContainer(ctx context.Context, id clusterdesc.ContainerID, nodeID string, timeout time.Duration) error {
	go func() {
		cctx := namespaces.WithNamespace(context.Background(), c.namespace)

		ctrdContainer, err := c.client.LoadContainer(cctx, string(id))
		if err != nil {
			c.sink.Publish(events.Event{Kind: events.KindContainerStopError, ContainerID: id, Err: err})
			return
		}
		task, err := ctrdContainer.Task(cctx, nil)
		if err != nil {
			// No task: already stopped.
			c.sink.Publish(events.Event{Kind: events.KindContainerStopped, ContainerID: id})
			return
		}

		stopCtx, cancel := context.WithTimeout(cctx, timeout)
		defer cancel()

		if err := task.Kill(stopCtx, syscall.SIGTERM); err != nil {
			c.sink.Publish(events.Event{Kind: events.KindContainerStopError, ContainerID: id, Err: err})
			return
		}

		statusC, err := task.Wait(stopCtx)
		if err != nil {
			c.sink.Publish(events.Event{Kind: events.KindContainerStopError, ContainerID: id, Err: err})
			return
		}

		select {
		case <-statusC:
		case <-stopCtx.Done():
			_ = task.Kill(cctx, syscall.SIGKILL)
		}

		_, _ = task.Delete(cctx)
		_ = ctrdContainer.Delete(cctx, containerd.WithSnapshotCleanup)

		c.sink.Publish(events.Event{Kind: events.KindContainerStopped, ContainerID: id})
	}()
	return nil
}

func (c *ContainerdClient) GetStatus(ctx context.Context, id clusterdesc.ContainerID, nodeID string) error {
	// Status queries are advisory in this adapter: the reconciliation
	// engine tracks node state from start/stop/completion events and does
	// not block waiting on this call.
	return nil
}
