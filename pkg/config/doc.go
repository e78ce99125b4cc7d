/*
Package config loads the application master's two configuration
surfaces as two separate values, RuntimeOptions and BackingSiteConfig;
the lifecycle reads them once and passes their fields to components at
construction time (Design Notes §9: "mutable global configuration" is
explicitly rejected in favor of values, never a package global).

Runtime options (heartbeat interval, max tolerable failures, ring-buffer
size, stop grace period) come from a small YAML file, parsed with
gopkg.in/yaml.v3 the way the rest of this codebase's lineage parses its
own config surfaces.

The backing-service site configuration is a separate, Hadoop-style keyed
XML file (<configuration><property><name>.../value>...) staged by the
external CLI (§1, out of scope) before the AM starts; it is read once at
boot (AM Lifecycle step 5) with the standard library's encoding/xml,
since no ecosystem library in this codebase's dependency lineage targets
that specific grammar.
*/
package config
