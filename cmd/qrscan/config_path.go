package main

import "os"

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	home, _ := os.UserHomeDir()
	return home + "/.qrscan/config.yaml"
}
