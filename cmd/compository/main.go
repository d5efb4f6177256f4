package main

import (
	"os"

	"github.com/compository/app/cmd"
	"github.com/compository/app/common"
)

func ExitProtection() {
	status := recover()
	if status != nil {
		exit, ok := status.(common.ExitCode)
		if ok {
			exit.ShowMessage()
			os.Exit(exit.Code)
		}
		panic(status)
	}
}

func main() {
	defer ExitProtection()
	cmd.Execute()
}
