package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSiteXML(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, backingSiteFileName), []byte(body), 0o644))
}

func TestLoadBackingSiteConfigHappyPath(t *testing.T) {
	dir := t.TempDir()
	writeSiteXML(t, dir, `<configuration>
		<property><name>fs.root.path</name><value>/hoya/cluster1</value></property>
		<property><name>zookeeper.hosts</name><value>zk1,zk2</value></property>
		<property><name>zookeeper.port</name><value>2181</value></property>
		<property><name>zookeeper.path</name><value>/hoya/cluster1</value></property>
	</configuration>`)

	cfg, err := LoadBackingSiteConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "/hoya/cluster1", cfg.RootPath)
	require.Equal(t, "zk1,zk2", cfg.ZKHosts)
	require.Equal(t, 2181, cfg.ZKPort)
	require.Equal(t, []string{"fs.root.path", "zookeeper.hosts", "zookeeper.port", "zookeeper.path"}, cfg.Keys)
}

func TestLoadBackingSiteConfigMissingDir(t *testing.T) {
	_, err := LoadBackingSiteConfig("/does/not/exist")
	require.Error(t, err)
}

func TestLoadBackingSiteConfigZeroPortFails(t *testing.T) {
	dir := t.TempDir()
	writeSiteXML(t, dir, `<configuration>
		<property><name>zookeeper.port</name><value>0</value></property>
	</configuration>`)

	_, err := LoadBackingSiteConfig(dir)
	require.Error(t, err)
}

func TestLoadBackingSiteConfigMissingPortFails(t *testing.T) {
	dir := t.TempDir()
	writeSiteXML(t, dir, `<configuration></configuration>`)

	_, err := LoadBackingSiteConfig(dir)
	require.Error(t, err)
}
