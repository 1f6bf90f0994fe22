package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds each viper key to the flag of the given name.
func bindFlags(lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		flag := lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("no flag named %q", name))
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}
