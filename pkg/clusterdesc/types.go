package clusterdesc

import (
	"github.com/elliotchance/orderedmap"
)

// Phase is the cluster-wide lifecycle phase (§3.1).
type Phase string

const (
	PhaseCreated    Phase = "CREATED"
	PhaseSubmitted  Phase = "SUBMITTED"
	PhaseLive       Phase = "LIVE"
	PhaseStopped    Phase = "STOPPED"
	PhaseDestroyed  Phase = "DESTROYED"
	PhaseIncomplete Phase = "INCOMPLETE"
	PhaseFailed     Phase = "FAILED"
)

// NodeRole identifies what role a ClusterNode plays.
type NodeRole string

const (
	RoleMaster  NodeRole = "master"
	RoleWorker  NodeRole = "worker"
	RoleUnknown NodeRole = "unknown"
)

// NodeState is a ClusterNode's lifecycle state (§3.1).
type NodeState string

const (
	NodeRequested NodeState = "REQUESTED"
	NodeSubmitted NodeState = "SUBMITTED"
	NodeLive      NodeState = "LIVE"
	NodeStopped   NodeState = "STOPPED"
	NodeDestroyed NodeState = "DESTROYED"
)

// ClusterNode is one process instance, master or worker (§3.1).
type ClusterNode struct {
	Name        string    `json:"name"`
	Role        NodeRole  `json:"role"`
	State       NodeState `json:"state"`
	Host        string    `json:"host"`
	Command     string    `json:"command"`
	Diagnostics string    `json:"diagnostics,omitempty"`
	ExitCode    *int      `json:"exitCode,omitempty"`
	Output      []string  `json:"output,omitempty"`
}

// ContainerID is the opaque, equality-comparable, stringifiable
// identifier the resource manager hands out for a container allocation
// (§3.1).
type ContainerID string

func (c ContainerID) String() string { return string(c) }

// Resource is a requested or granted resource capability.
type Resource struct {
	MemoryMB int `json:"memoryMb"`
}

// Container is an allocation handed out by the RM: a ContainerID, a node
// identity, and a resource capability (§3.1).
type Container struct {
	ID       ContainerID `json:"id"`
	NodeHost string      `json:"nodeHost"`
	NodePort int         `json:"nodePort"`
	Resource Resource    `json:"resource"`
}

// NodeID returns the host:port identity of the node backing this
// container, as required by NM adapter calls that address a node
// independently of the container id.
func (c Container) NodeID() string {
	return c.NodeHost
}

// ContainerStatus reports a container's terminal state, as delivered by
// the RM Client Adapter's onContainersCompleted callback (§4.C).
type ContainerStatus struct {
	ID          ContainerID `json:"id"`
	State       string      `json:"state"` // "COMPLETE" or other terminal value
	Aborted     bool        `json:"aborted"`
	ExitCode    int         `json:"exitCode"`
	Diagnostics string      `json:"diagnostics,omitempty"`
}

// ClusterDescription is the root document: the single authoritative
// in-memory record of desired and observed cluster state (§3.1). Field
// names and their JSON encoding are part of the external contract (§6) —
// consumers of getClusterStatus may depend on this exact shape.
type ClusterDescription struct {
	Name       string `json:"name"`
	Phase      Phase  `json:"phase"`
	CreateTime int64  `json:"createTime"`
	StartTime  int64  `json:"startTime"`
	StatusTime int64  `json:"statusTime"`

	Masters    int `json:"masters"`
	Workers    int `json:"workers"`
	MasterHeap int `json:"masterHeap"`
	WorkerHeap int `json:"workerHeap"`

	ClientProperties *orderedmap.OrderedMap `json:"clientProperties"`

	MasterNodes    []*ClusterNode `json:"masterNodes"`
	WorkerNodes    []*ClusterNode `json:"workerNodes"`
	RequestedNodes []*ClusterNode `json:"requestedNodes"`
	CompletedNodes []*ClusterNode `json:"completedNodes"`
	FailedNodes    []*ClusterNode `json:"failedNodes"`

	RootPath string `json:"rootPath"`
	ZKHosts  string `json:"zkHosts"`
	ZKPort   int    `json:"zkPort"`
	ZKPath   string `json:"zkPath"`
}

// New creates a fresh ClusterDescription in the CREATED phase.
func New(name string, masters, workers, masterHeap, workerHeap int, now int64) *ClusterDescription {
	return &ClusterDescription{
		Name:             name,
		Phase:            PhaseCreated,
		CreateTime:       now,
		StatusTime:       now,
		Masters:          masters,
		Workers:          workers,
		MasterHeap:       masterHeap,
		WorkerHeap:       workerHeap,
		ClientProperties: orderedmap.NewOrderedMap(),
		MasterNodes:      []*ClusterNode{},
		WorkerNodes:      []*ClusterNode{},
		RequestedNodes:   []*ClusterNode{},
		CompletedNodes:   []*ClusterNode{},
		FailedNodes:      []*ClusterNode{},
	}
}
