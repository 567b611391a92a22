package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

type FileConfig struct {
	Origin      string   `yaml:"origin"`
	Port        int      `yaml:"port"`
	DB          string   `yaml:"db"`
	Version     string   `yaml:"version"`
	Precache    []string `yaml:"precache"`
	OfflinePath string   `yaml:"offlinePath"`
	APIPrefix   string   `yaml:"apiPrefix"`
	AssetPrefix string   `yaml:"assetPrefix"`
	ImageHosts  []string `yaml:"imageHosts"`
}

func getConfig(filename string) (FileConfig, error) {
	var config FileConfig
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
