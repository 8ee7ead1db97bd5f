package main

import (
	"github.com/spf13/viper"
	"github.com/srand/mexec/pkg/executor"
	"github.com/srand/mexec/pkg/utils"
)

func LoadConfig() (*executor.Config, error) {
	config := &executor.Config{}

	err := utils.UnmarshalConfig(*viper.GetViper(), config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
