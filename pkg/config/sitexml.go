package config

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cuemby/hoyamaster/pkg/amerrors"
)

const backingSiteFileName = "backing-site.xml"

// Well-known property keys the AM derives its topology fields from
// (AM Lifecycle step 5).
const (
	PropRootPath = "fs.root.path"
	PropZKHosts  = "zookeeper.hosts"
	PropZKPort   = "zookeeper.port"
	PropZKPath   = "zookeeper.path"
)

type xmlProperty struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

type xmlConfiguration struct {
	XMLName    xml.Name      `xml:"configuration"`
	Properties []xmlProperty `xml:"property"`
}

// BackingSiteConfig is the parsed form of <localConfDir>/backing-site.xml
// plus the derived fields the AM needs (§3.1, §6).
type BackingSiteConfig struct {
	RootPath string
	ZKHosts  string
	ZKPort   int
	ZKPath   string

	// Keys preserves file order so callers can copy into an ordered map
	// (§3.1's "ordered mapping ... copied from the staged configuration
	// file").
	Keys   []string
	Values map[string]string
}

// LoadBackingSiteConfig reads and validates <confDir>/backing-site.xml
// (AM Lifecycle step 5). Fails with BadConfig if the directory or file is
// missing, the file doesn't parse, or zookeeper.port is absent or zero.
func LoadBackingSiteConfig(confDir string) (*BackingSiteConfig, error) {
	info, err := os.Stat(confDir)
	if err != nil || !info.IsDir() {
		return nil, amerrors.BadConfig("configuration directory missing: "+confDir, err)
	}

	path := filepath.Join(confDir, backingSiteFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, amerrors.BadConfig("backing-site.xml missing: "+path, err)
	}

	var parsed xmlConfiguration
	if err := xml.Unmarshal(b, &parsed); err != nil {
		return nil, amerrors.BadConfig("backing-site.xml malformed: "+path, err)
	}

	cfg := &BackingSiteConfig{
		Values: make(map[string]string, len(parsed.Properties)),
	}
	for _, p := range parsed.Properties {
		cfg.Keys = append(cfg.Keys, p.Name)
		cfg.Values[p.Name] = p.Value
	}

	cfg.RootPath = cfg.Values[PropRootPath]
	cfg.ZKHosts = cfg.Values[PropZKHosts]
	cfg.ZKPath = cfg.Values[PropZKPath]

	portStr, ok := cfg.Values[PropZKPort]
	if !ok {
		return nil, amerrors.BadConfig("zookeeper.port missing from backing-site.xml", nil)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return nil, amerrors.BadConfig("zookeeper.port must be a non-zero integer", err)
	}
	cfg.ZKPort = port

	return cfg, nil
}
