package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func baseArgs() Args {
	return Args{
		Workers:          2,
		Masters:          1,
		WorkerHeap:       512,
		MasterHeap:       1024,
		GeneratedConfDir: "/tmp/conf",
		BackingHome:      "/opt/hbase",
	}
}

func TestValidateRejectsBadMasterCount(t *testing.T) {
	a := baseArgs()
	a.Masters = 2
	require.Error(t, a.Validate())
}

func TestValidateRejectsNegativeWorkers(t *testing.T) {
	a := baseArgs()
	a.Workers = -1
	require.Error(t, a.Validate())
}

func TestValidateRequiresConfDir(t *testing.T) {
	a := baseArgs()
	a.GeneratedConfDir = ""
	require.Error(t, a.Validate())
}

func TestValidateNoMasterDoesNotRequireBackingHome(t *testing.T) {
	a := baseArgs()
	a.Masters = 0
	a.BackingHome = ""
	require.NoError(t, a.Validate())
}

func TestValidateAcceptsHappyPath(t *testing.T) {
	require.NoError(t, baseArgs().Validate())
}

func TestLoadEnvFailsOnMissingRequired(t *testing.T) {
	t.Setenv("CONTAINER_ID", "")
	t.Setenv("NM_HOST", "")
	t.Setenv("NM_PORT", "")
	t.Setenv("USER", "")
	t.Setenv("LOGDIR", "")
	_, err := LoadEnv("hoyamaster")
	require.Error(t, err)
}

func TestLoadEnvDefaultsLogDir(t *testing.T) {
	t.Setenv("CONTAINER_ID", "container_1")
	t.Setenv("NM_HOST", "node1")
	t.Setenv("NM_PORT", "1234")
	t.Setenv("NM_HTTP_PORT", "8042")
	t.Setenv("USER", "svc")
	t.Setenv("LOGDIR", "")

	env, err := LoadEnv("hoyamaster")
	require.NoError(t, err)
	require.Equal(t, "/tmp/hoyamaster-svc", env.LogDir)
}

func TestMasterCommandDefaultsToBackingHomeBinary(t *testing.T) {
	a := baseArgs()
	cmd := masterCommand(a)
	require.Equal(t, []string{"/opt/hbase/bin/hbase", "--config", "/tmp/conf", "master", "start"}, cmd)
}

func TestMasterCommandHonorsTestHook(t *testing.T) {
	a := baseArgs()
	a.XHBaseMasterCommand = "echo hi"
	cmd := masterCommand(a)
	require.Equal(t, []string{"/bin/sh", "-c", "echo hi"}, cmd)
}
