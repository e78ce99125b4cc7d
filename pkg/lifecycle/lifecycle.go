package lifecycle

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cuemby/hoyamaster/pkg/amerrors"
	"github.com/cuemby/hoyamaster/pkg/clusterdesc"
	"github.com/cuemby/hoyamaster/pkg/config"
	"github.com/cuemby/hoyamaster/pkg/controlrpc"
	"github.com/cuemby/hoyamaster/pkg/events"
	"github.com/cuemby/hoyamaster/pkg/launcher"
	"github.com/cuemby/hoyamaster/pkg/log"
	"github.com/cuemby/hoyamaster/pkg/metrics"
	"github.com/cuemby/hoyamaster/pkg/nmclient"
	"github.com/cuemby/hoyamaster/pkg/reconcile"
	"github.com/cuemby/hoyamaster/pkg/rmclient"
	"github.com/cuemby/hoyamaster/pkg/supervisor"
)

// defaultBinary and defaultSubcommand give the master's launch command
// its default shape: "<backingHome>/bin/<binary> --config <confDir>
// <subcommand> start" (§6). The --x-hbase-master-command test hook
// overrides the whole command.
const (
	defaultBinary     = "hbase"
	defaultSubcommand = "master"

	// defaultWorkerImage is the containerd image reference used when the
	// AM isn't told otherwise; the region-server binary itself still
	// comes from --backing-home inside that image, matching how the
	// master process is invoked directly (§6).
	defaultWorkerImage = "docker.io/library/hbase:latest"

	// defaultMetricsAddr is where the AM's own /metrics endpoint listens
	// when --metrics-addr isn't set.
	defaultMetricsAddr = "127.0.0.1:9090"
)

// Args holds the AM's command-line arguments (§6), parsed once at boot
// and passed by value from there on (§9 "mutable global configuration"
// note).
type Args struct {
	Workers             int
	Masters             int
	WorkerHeap          int
	MasterHeap          int
	GeneratedConfDir    string
	BackingHome         string
	WorkerImage         string
	RMAddress           string
	XHBaseMasterCommand string
	XTest               bool
	LogLevel            string
	LogJSON             bool

	RuntimeOptionsPath string
	ClusterName        string
	MetricsAddr        string
}

// Validate checks the argument combination the lifecycle requires
// before doing anything observable (§4.H step 1, §7 BadCommandArguments).
func (a Args) Validate() error {
	if a.Masters != 0 && a.Masters != 1 {
		return amerrors.BadCommandArguments("masters must be 0 or 1", nil)
	}
	if a.Workers < 0 {
		return amerrors.BadCommandArguments("workers must be >= 0", nil)
	}
	if a.GeneratedConfDir == "" {
		return amerrors.BadCommandArguments("generated-conf-dir is required", nil)
	}
	if a.Masters > 0 && a.BackingHome == "" {
		return amerrors.BadCommandArguments("backing-home is required when masters > 0", nil)
	}
	return nil
}

// Env is the subset of the resource manager's environment contract the
// AM consumes (§6). All fields are required except LogDir.
type Env struct {
	ContainerID string
	NMHost      string
	NMPort      string
	NMHTTPPort  string
	User        string
	LogDir      string
}

// LoadEnv reads the required environment variables, defaulting LOGDIR
// to /tmp/<product>-<user> when unset.
func LoadEnv(product string) (Env, error) {
	e := Env{
		ContainerID: os.Getenv("CONTAINER_ID"),
		NMHost:      os.Getenv("NM_HOST"),
		NMPort:      os.Getenv("NM_PORT"),
		NMHTTPPort:  os.Getenv("NM_HTTP_PORT"),
		User:        os.Getenv("USER"),
		LogDir:      os.Getenv("LOGDIR"),
	}
	missing := map[string]string{
		"CONTAINER_ID": e.ContainerID,
		"NM_HOST":      e.NMHost,
		"NM_PORT":      e.NMPort,
		"NM_HTTP_PORT": e.NMHTTPPort,
		"USER":         e.User,
	}
	for k, v := range missing {
		if v == "" {
			return e, amerrors.BadCommandArguments("required environment variable missing: "+k, nil)
		}
	}
	if e.LogDir == "" {
		e.LogDir = fmt.Sprintf("/tmp/%s-%s", product, e.User)
	}
	return e, nil
}

// Run executes the full AM lifecycle (§4.H) and returns the process
// exit code (§6).
func Run(args Args) int {
	if err := args.Validate(); err != nil {
		log.Error(err.Error())
		return amerrors.ExitBadConfig
	}

	env, err := LoadEnv("hoyamaster")
	if err != nil {
		log.Error(err.Error())
		return amerrors.ExitBadConfig
	}

	name := args.ClusterName
	if name == "" {
		name = env.ContainerID
	}

	runtimeOpts, err := config.LoadRuntimeOptions(args.RuntimeOptionsPath)
	if err != nil {
		log.Error(fmt.Sprintf("loading runtime options: %v", err))
		return amerrors.ExitBadConfig
	}

	metricsAddr := args.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = defaultMetricsAddr
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	go func() {
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Error(fmt.Sprintf("metrics server stopped: %v", err))
		}
	}()
	log.WithComponent("lifecycle").Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")

	sink := events.NewSink()
	now := time.Now()
	desc := clusterdesc.New(name, args.Masters, args.Workers, args.MasterHeap, args.WorkerHeap, now.UnixMilli())
	store := clusterdesc.NewStore(desc)
	store.SetPhase(clusterdesc.PhaseSubmitted)

	// Step 2/8: the resource-manager wire protocol is abstract and out
	// of scope (§1); SimulatedClient is this module's only concrete RM
	// adapter, used in both --x-test and normal operation.
	rm := rmclient.NewSimulatedClient(sink, runtimeOpts.HeartbeatInterval)

	// Step 3: NM adapter toggles between the containerd-backed client
	// and the in-memory simulated one.
	var nm nmclient.Client
	if args.XTest {
		nm = nmclient.NewSimulatedClient(sink)
	} else {
		containerdClient, err := nmclient.NewContainerdClient("", sink)
		if err != nil {
			log.Error(fmt.Sprintf("connecting to node manager (containerd): %v", err))
			return amerrors.ExitLaunchFailed
		}
		nm = containerdClient
	}

	var sup *supervisor.Supervisor
	if args.Masters > 0 {
		sup = supervisor.New(sink, runtimeOpts.RingBufferLines, runtimeOpts.StopGracePeriod)
	}

	// Step 4: start the control RPC server before registering, so the
	// RPC port is available to pass to Register.
	rpcServer := controlrpc.New(store, sink, sup)
	rpcAddr, err := rpcServer.Start()
	if err != nil {
		log.Error(fmt.Sprintf("starting control RPC server: %v", err))
		return amerrors.ExitInternal
	}
	_, rpcPort := splitHostPort(rpcAddr)

	hostname, _ := os.Hostname()
	regCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	_, err = rm.Register(regCtx, hostname, rpcPort, "http://"+hostname+":"+fmt.Sprint(rpcPort)+"/")
	cancel()
	if err != nil {
		log.Error(fmt.Sprintf("registering with resource manager: %v", err))
		rpcServer.Stop()
		return amerrors.ExitLaunchFailed
	}

	// Step 5/6: load and validate the staged backing-service config.
	siteConfig, err := config.LoadBackingSiteConfig(args.GeneratedConfDir)
	if err != nil {
		log.Error(err.Error())
		rpcServer.Stop()
		return amerrors.ExitBadConfig
	}
	store.SetBackingServiceConfig(siteConfig.RootPath, siteConfig.ZKHosts, siteConfig.ZKPort, siteConfig.ZKPath, siteConfig.Values, siteConfig.Keys)
	store.SetStartTime(time.Now())
	store.SetPhase(clusterdesc.PhaseLive)

	launch := launcher.New(nm, store)

	workerImage := args.WorkerImage
	if workerImage == "" {
		workerImage = defaultWorkerImage
	}
	workerSpec := reconcile.WorkerSpec{
		Image:   workerImage,
		Command: []string{args.BackingHome + "/bin/" + defaultBinary, "--config", args.GeneratedConfDir, "regionserver", "start"},
		Env:     map[string]string{"LOG_DIR": env.LogDir},
	}
	resource := clusterdesc.Resource{MemoryMB: args.WorkerHeap}

	engine := reconcile.New(sink, store, rm, nm, launch, workerSpec, resource, args.Masters > 0, runtimeOpts.MaxTolerableFailures)
	go engine.Run()

	// Step 7: spawn the supervised master, if configured. The master
	// node is registered the same way launcher.Launch registers a
	// worker (requested, then promoted with its host and effective
	// command line), keyed by the fixed reconcile.MasterNodeName since
	// there is at most one and it is never allocated through the RM/NM
	// adapters.
	if args.Masters > 0 {
		masterCmd := masterCommand(args)
		store.RecordRequested(&clusterdesc.ClusterNode{Name: reconcile.MasterNodeName, Role: clusterdesc.RoleMaster})
		store.PromoteRequestedToLaunching(reconcile.MasterNodeName, clusterdesc.RoleMaster, hostname, strings.Join(masterCmd, " "))
		if err := sup.Spawn(masterCmd, map[string]string{"LOG_DIR": env.LogDir}); err != nil {
			log.Error(fmt.Sprintf("spawning master process: %v", err))
			rpcServer.Stop()
			return amerrors.ExitLaunchFailed
		}
	}

	// Step 8: request the desired worker containers.
	if args.Workers > 0 {
		rm.RequestContainers(resource, nil, nil, 0, args.Workers)
	}

	// Step 9: block until the reconciliation engine signals completion.
	engine.WaitForCompletion()
	time.Sleep(1 * time.Second)

	// Step 10: ordered shutdown.
	store.SetPhase(clusterdesc.PhaseStopped)
	if sup != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), runtimeOpts.StopGracePeriod+5*time.Second)
		_ = sup.Stop(stopCtx)
		stopCancel()
	}
	launch.Shutdown()

	failed := engine.NumFailed()
	unregisterCtx, unregisterCancel := context.WithTimeout(context.Background(), 30*time.Second)
	status := rmclient.StatusSucceeded
	message := ""
	if failed > 0 {
		status = rmclient.StatusFailed
		message = fmt.Sprintf("%d worker container(s) failed", failed)
	}
	if err := rm.Unregister(unregisterCtx, status, message); err != nil {
		log.Error(fmt.Sprintf("unregistering from resource manager: %v", err))
	}
	unregisterCancel()
	rm.Close()
	_ = nm.Close()

	rpcServer.Stop()

	store.SetPhase(clusterdesc.PhaseDestroyed)

	if failed > 0 {
		return amerrors.ExitLaunchFailed
	}
	return amerrors.ExitSuccess
}

func masterCommand(args Args) []string {
	if args.XHBaseMasterCommand != "" {
		return []string{"/bin/sh", "-c", args.XHBaseMasterCommand}
	}
	return []string{
		args.BackingHome + "/bin/" + defaultBinary,
		"--config", args.GeneratedConfDir,
		defaultSubcommand, "start",
	}
}

// splitHostPort extracts the numeric port from a "host:port" address;
// returns 0 if it can't be parsed, which should not happen for a
// listener address returned by net.Listen.
func splitHostPort(addr string) (string, int) {
	host := addr
	port := 0
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			host = addr[:i]
			fmt.Sscanf(addr[i+1:], "%d", &port)
			break
		}
	}
	return host, port
}
