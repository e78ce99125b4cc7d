// Package main is the application-master entrypoint (§4.H). It is
// launched by the client-side submission tooling, not by a human; the
// flags below are the AM's launch arguments (§6).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/hoyamaster/pkg/lifecycle"
	"github.com/cuemby/hoyamaster/pkg/log"
)

var args lifecycle.Args

func main() {
	os.Exit(runRoot())
}

func runRoot() int {
	exitCode := 0
	rootCmd.RunE = func(cmd *cobra.Command, cmdArgs []string) error {
		log.Init(log.Config{
			Level:      log.Level(args.LogLevel),
			JSONOutput: args.LogJSON,
		})
		exitCode = lifecycle.Run(args)
		return nil
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 70
	}
	return exitCode
}

var rootCmd = &cobra.Command{
	Use:   "appmaster",
	Short: "Application master for the distributed database cluster",
	Long: `appmaster is the application master (AM) that deploys and
supervises a distributed database as a long-running workload on the
cluster: it requests worker containers from the resource manager,
launches a supervised master process, and reconciles observed cluster
state toward the desired role counts until told to stop.`,
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.IntVar(&args.Workers, "workers", 0, "desired number of worker (region server) containers")
	flags.IntVar(&args.Masters, "masters", 1, "desired number of master containers (0 or 1)")
	flags.IntVar(&args.WorkerHeap, "worker-heap", 1024, "worker container heap size in MB")
	flags.IntVar(&args.MasterHeap, "master-heap", 1024, "master container heap size in MB")
	flags.StringVar(&args.GeneratedConfDir, "generated-conf-dir", "", "path to the staged configuration directory (required)")
	flags.StringVar(&args.BackingHome, "backing-home", "", "path to the backing service installation")
	flags.StringVar(&args.WorkerImage, "worker-image", "", "containerd image reference for worker containers")
	flags.StringVar(&args.RMAddress, "rm-address", "", "resource manager host:port")
	flags.StringVar(&args.XHBaseMasterCommand, "x-hbase-master-command", "", "test hook: override the master process command line")
	flags.BoolVar(&args.XTest, "x-test", false, "test mode: use the simulated node-manager adapter instead of containerd (the resource-manager adapter is always simulated)")
	flags.StringVar(&args.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.BoolVar(&args.LogJSON, "log-json", false, "emit logs as JSON")
	flags.StringVar(&args.RuntimeOptionsPath, "runtime-options", "", "path to a YAML runtime-options file overriding AM tunables")
	flags.StringVar(&args.ClusterName, "cluster-name", "", "cluster name; defaults to CONTAINER_ID")
	flags.StringVar(&args.MetricsAddr, "metrics-addr", "", "address the /metrics HTTP endpoint listens on (default 127.0.0.1:9090)")

	_ = rootCmd.MarkPersistentFlagRequired("generated-conf-dir")
}
