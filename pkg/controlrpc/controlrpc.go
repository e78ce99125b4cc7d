package controlrpc

import (
	"net"
	"net/rpc"
	"sync"
	"time"

	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/events"
	"github.com/cuemby/hoyamaster/pkg/log"
	"github.com/cuemby/hoyamaster/pkg/metrics"
	"github.com/cuemby/hoyamaster/pkg/supervisor"
)

// ProtocolVersion and ProtocolSignature stand in for the version
// negotiation pair a real Hadoop-style AM protocol would expose
// (§4.G); clients call GetProtocolVersion/GetProtocolSignature before
// trusting the rest of the surface.
const (
	ProtocolVersion   = 1
	ProtocolSignature = "hoyamaster-control-rpc-v1"
)

// DefaultHandlerPoolSize bounds the number of connections served
// concurrently (§5 "a small bounded pool, default 5").
const DefaultHandlerPoolSize = 5

// Empty is the request/reply shape for operations that carry no
// payload.
type Empty struct{}

// Server is the Control RPC Server (§4.G). It wraps a net/rpc server
// registered under the name "AM" and serves it on an ephemeral
// loopback TCP port.
type Server struct {
	store      *clusterdesc.Store
	sink       events.Sink
	supervisor *supervisor.Supervisor // nil when masters == 0
	poolSize   int

	rpcServer *rpc.Server

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
	stopped  bool
}

// service is the receiver net/rpc dispatches to; kept unexported so the
// public API is exactly Server's Start/Stop/Addr.
type service struct {
	s *Server
}

// New builds a Control RPC Server publishing stopCluster/addNodes/
// deleteNodes as events onto sink and reading getClusterStatus snapshots
// from store. sup may be nil when the cluster has no master (§4.G
// "master node fields reconciled with 4.A").
func New(store *clusterdesc.Store, sink events.Sink, sup *supervisor.Supervisor) *Server {
	s := &Server{
		store:      store,
		sink:       sink,
		supervisor: sup,
		poolSize:   DefaultHandlerPoolSize,
	}
	s.rpcServer = rpc.NewServer()
	_ = s.rpcServer.RegisterName("AM", &service{s: s})
	return s
}

// Start binds an ephemeral TCP port on loopback and begins serving.
func (s *Server) Start() (string, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	sem := make(chan struct{}, s.poolSize)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := lis.Accept()
			if err != nil {
				return
			}
			sem <- struct{}{}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer func() { <-sem }()
				s.rpcServer.ServeConn(conn)
			}()
		}
	}()

	log.WithComponent("controlrpc").Info().Str("addr", lis.Addr().String()).Msg("control RPC server listening")
	return lis.Addr().String(), nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and waits for in-flight handlers to drain.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	lis := s.listener
	s.mu.Unlock()

	if lis != nil {
		_ = lis.Close()
	}
	s.wg.Wait()
}

func (s *service) recordMetric(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RPCRequestsTotal.WithLabelValues(op, outcome).Inc()
	metrics.RPCRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// GetClusterStatus returns a fresh JSON snapshot of the cluster
// description, with statusTime refreshed and (when a master is
// supervised) its node reconciled against the Process Supervisor's live
// view (§4.G, §4.B).
func (s *service) GetClusterStatus(_ *Empty, reply *string) error {
	start := time.Now()
	s.reconcileMasterNode()
	snap, err := s.s.store.SnapshotJSON(start)
	s.recordMetric("getClusterStatus", start, err)
	if err != nil {
		return err
	}
	*reply = snap
	return nil
}

// reconcileMasterNode folds the supervisor's live exit-code/running
// view into the store before a status read, since the supervisor's
// applicationExited event may not have been processed by the
// reconciliation engine yet when a client polls status.
func (s *service) reconcileMasterNode() {
	sup := s.s.supervisor
	if sup == nil {
		return
	}
	if code, done := sup.ExitCode(); done {
		s.s.store.Mutate(func(desc *clusterdesc.ClusterDescription) {
			for _, n := range desc.MasterNodes {
				if n.State != clusterdesc.NodeDestroyed {
					n.ExitCode = &code
				}
			}
		})
	}
}

// StopCluster signals AM completion and returns immediately (§4.G).
func (s *service) StopCluster(_ *Empty, reply *bool) error {
	start := time.Now()
	s.s.sink.Publish(events.Event{Kind: events.KindShutdownRequested})
	*reply = true
	s.recordMetric("stopCluster", start, nil)
	return nil
}

// AddNodes records intent to grow the desired worker count by n
// (§4.G, §9: implemented as real scaling, not a stub).
func (s *service) AddNodes(n *int, reply *bool) error {
	start := time.Now()
	s.s.sink.Publish(events.Event{Kind: events.KindAddNodes, N: *n})
	*reply = true
	s.recordMetric("addNodes", start, nil)
	return nil
}

// DeleteNodes records intent to shrink the desired worker count by n
// (§4.G, §9: implemented as real scaling, not a stub).
func (s *service) DeleteNodes(n *int, reply *bool) error {
	start := time.Now()
	s.s.sink.Publish(events.Event{Kind: events.KindDeleteNodes, N: *n})
	*reply = true
	s.recordMetric("deleteNodes", start, nil)
	return nil
}

// GetProtocolVersion returns the control RPC protocol's version number.
func (s *service) GetProtocolVersion(_ *Empty, reply *int) error {
	*reply = ProtocolVersion
	return nil
}

// GetProtocolSignature returns the control RPC protocol's signature
// string, for client-side compatibility checks.
func (s *service) GetProtocolSignature(_ *Empty, reply *string) error {
	*reply = ProtocolSignature
	return nil
}
