package controlrpc

import (
	"net/rpc"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/events"
)

func newTestServer(t *testing.T) (*Server, events.Sink) {
	t.Helper()
	sink := events.NewSink()
	store := clusterdesc.NewStore(clusterdesc.New("test", 0, 2, 512, 1024, time.Now().UnixMilli()))
	srv := New(store, sink, nil)
	addr, err := srv.Start()
	require.NoError(t, err)
	require.NotEmpty(t, addr)
	t.Cleanup(srv.Stop)
	return srv, sink
}

func TestGetClusterStatusReturnsWellFormedJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	client, err := rpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	var reply string
	require.NoError(t, client.Call("AM.GetClusterStatus", &Empty{}, &reply))
	require.Contains(t, reply, `"name":"test"`)
}

func TestStopClusterPublishesShutdownEvent(t *testing.T) {
	srv, sink := newTestServer(t)

	client, err := rpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	var reply bool
	require.NoError(t, client.Call("AM.StopCluster", &Empty{}, &reply))
	require.True(t, reply)

	select {
	case ev := <-sink:
		require.Equal(t, events.KindShutdownRequested, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for shutdown event")
	}
}

func TestAddNodesPublishesEventWithCount(t *testing.T) {
	srv, sink := newTestServer(t)

	client, err := rpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	n := 3
	var reply bool
	require.NoError(t, client.Call("AM.AddNodes", &n, &reply))

	ev := <-sink
	require.Equal(t, events.KindAddNodes, ev.Kind)
	require.Equal(t, 3, ev.N)
}

func TestProtocolVersionAndSignature(t *testing.T) {
	srv, _ := newTestServer(t)

	client, err := rpc.Dial("tcp", srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	var version int
	require.NoError(t, client.Call("AM.GetProtocolVersion", &Empty{}, &version))
	require.Equal(t, ProtocolVersion, version)

	var sig string
	require.NoError(t, client.Call("AM.GetProtocolSignature", &Empty{}, &sig))
	require.Equal(t, ProtocolSignature, sig)
}
