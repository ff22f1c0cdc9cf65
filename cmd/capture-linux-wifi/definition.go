package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dauie/capture-linux-wifi/internal/monitor"
)

// parseSourceDefinition parses the framework's colon-prefixed source
// definition string ("interface=wlan0:fcsfail=true:vif=wifimon:...") for
// the flags this core consumes.
func parseSourceDefinition(definition string) (monitor.SourceDefinition, error) {
	var def monitor.SourceDefinition

	for _, field := range strings.Split(definition, ":") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, _ := strings.Cut(field, "=")
		switch key {
		case "interface":
			def.Interface = value
		case "vif":
			def.Vif = value
		case "fcsfail":
			def.FCSFail = isTrue(value)
		case "plcpfail":
			def.PLCPFail = isTrue(value)
		case "ignoreprimary":
			def.IgnorePrimary = isTrue(value)
		case "dlt":
			n, err := strconv.Atoi(value)
			if err != nil {
				return def, fmt.Errorf("source definition dlt= flag: %w", err)
			}
			def.OverrideDLT = &n
		}
	}

	if def.Interface == "" {
		return def, fmt.Errorf("source definition missing required interface= flag")
	}
	return def, nil
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
