package common

import (
	"os"
	"path/filepath"
	"time"
)

const (
	defaultCompositoryLocation = "$HOME/.compository"
)

var (
	LogLinenumbers bool
	LogHides       []string

	silentFlag bool
	debugFlag  bool
	traceFlag  bool

	When    = time.Now().Unix()
	Started = time.Now()

	Home = CompositoryMode()
)

func Silent() bool {
	return silentFlag
}

func DebugFlag() bool {
	return debugFlag || traceFlag
}

func TraceFlag() bool {
	return traceFlag
}

func DefineVerbosity(silent, debug, trace bool) {
	silentFlag = silent
	debugFlag = debug
	traceFlag = trace
	syncLogLevel()
}

func ExpandPath(entry string) string {
	intermediate := os.ExpandEnv(entry)
	result, err := filepath.Abs(intermediate)
	if err != nil {
		return intermediate
	}
	return result
}

func EnsureDirectory(directory string) (string, error) {
	fullpath, err := filepath.Abs(directory)
	if err != nil {
		return "", err
	}
	err = os.MkdirAll(fullpath, 0o750)
	if err != nil {
		return "", err
	}
	return fullpath, nil
}
