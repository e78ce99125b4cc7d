package clusterdesc

import (
	"encoding/json"
	"sync"
	"time"
)

// Store is a thread-safe wrapper around a single ClusterDescription
// (§4.B). All mutations occur under one lock; a reader serializes a
// consistent snapshot to JSON.
type Store struct {
	mu   sync.Mutex
	desc *ClusterDescription
}

// NewStore wraps an existing ClusterDescription in a Store.
func NewStore(desc *ClusterDescription) *Store {
	return &Store{desc: desc}
}

// Mutate runs fn under the document lock. fn must not retain any pointer
// obtained from desc past its return.
func (s *Store) Mutate(fn func(desc *ClusterDescription)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.desc)
}

// SnapshotJSON serializes a consistent copy of the document under the
// lock (§3.2: the RPC server publishes status only this way).
func (s *Store) SnapshotJSON(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desc.StatusTime = now.UnixMilli()
	b, err := json.Marshal(s.desc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SetPhase transitions the cluster-wide lifecycle phase.
func (s *Store) SetPhase(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desc.Phase = phase
}

// SetStartTime records when the cluster became LIVE-eligible (master
// spawned or, in no-master mode, workers requested).
func (s *Store) SetStartTime(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desc.StartTime = now.UnixMilli()
}

// SetBackingServiceConfig copies the staged configuration's derived
// fields and raw properties into the document (AM Lifecycle step 6).
func (s *Store) SetBackingServiceConfig(rootPath, zkHosts string, zkPort int, zkPath string, props map[string]string, orderedKeys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desc.RootPath = rootPath
	s.desc.ZKHosts = zkHosts
	s.desc.ZKPort = zkPort
	s.desc.ZKPath = zkPath
	for _, k := range orderedKeys {
		s.desc.ClientProperties.Set(k, props[k])
	}
}

// RecordRequested appends a REQUESTED placeholder node. The launcher
// calls it for an allocated container before submitting it to the NM
// adapter; the lifecycle calls it for the master before spawning it.
func (s *Store) RecordRequested(node *ClusterNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.desc.RequestedNodes = append(s.desc.RequestedNodes, node)
}

// PromoteRequestedToLaunching moves a node out of requestedNodes into the
// role-appropriate list (masterNodes/workerNodes) in SUBMITTED state,
// keyed by container name. Returns false if no matching requested node
// was found.
func (s *Store) PromoteRequestedToLaunching(name string, role NodeRole, host, command string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, n := range s.desc.RequestedNodes {
		if n.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	node := s.desc.RequestedNodes[idx]
	s.desc.RequestedNodes = append(s.desc.RequestedNodes[:idx], s.desc.RequestedNodes[idx+1:]...)

	node.Role = role
	node.State = NodeSubmitted
	node.Host = host
	node.Command = command

	switch role {
	case RoleMaster:
		s.desc.MasterNodes = append(s.desc.MasterNodes, node)
	default:
		s.desc.WorkerNodes = append(s.desc.WorkerNodes, node)
	}
	return true
}

// PromoteToLive marks a node LIVE on its onContainerStarted callback
// (Testable Property 5). Searches masterNodes then workerNodes.
func (s *Store) PromoteToLive(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.desc.MasterNodes {
		if n.Name == name {
			n.State = NodeLive
			return true
		}
	}
	for _, n := range s.desc.WorkerNodes {
		if n.Name == name {
			n.State = NodeLive
			return true
		}
	}
	return false
}

// MoveToTerminal removes a node (by name) from masterNodes/workerNodes
// and appends it to completedNodes or failedNodes, DESTROYED, carrying
// the exit code and diagnostics (§4.F completion handling).
func (s *Store) MoveToTerminal(name string, failed bool, exitCode int, diagnostics string) *ClusterNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := removeByName(&s.desc.WorkerNodes, name)
	if node == nil {
		node = removeByName(&s.desc.MasterNodes, name)
	}
	if node == nil {
		node = &ClusterNode{Name: name, Role: RoleUnknown}
	}
	node.State = NodeDestroyed
	node.ExitCode = &exitCode
	node.Diagnostics = diagnostics

	if failed {
		s.desc.FailedNodes = append(s.desc.FailedNodes, node)
	} else {
		s.desc.CompletedNodes = append(s.desc.CompletedNodes, node)
	}
	return node
}

func removeByName(list *[]*ClusterNode, name string) *ClusterNode {
	for i, n := range *list {
		if n.Name == name {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return n
		}
	}
	return nil
}

// WorkerCount returns the current size of workerNodes (§3.2 invariant
// checks use this).
func (s *Store) WorkerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.desc.WorkerNodes)
}

// SetDesiredWorkers updates the desired worker topology field (addNodes
// / deleteNodes, §4.G).
func (s *Store) SetDesiredWorkers(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 {
		n = 0
	}
	s.desc.Workers = n
}

// DesiredWorkers reads the current desired worker topology field.
func (s *Store) DesiredWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc.Workers
}

// NodeHost returns the recorded host for a node name, searching
// workerNodes then masterNodes. Used by deleteNodes to address an
// excess worker's StopContainer call.
func (s *Store) NodeHost(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.desc.WorkerNodes {
		if n.Name == name {
			return n.Host
		}
	}
	for _, n := range s.desc.MasterNodes {
		if n.Name == name {
			return n.Host
		}
	}
	return ""
}
