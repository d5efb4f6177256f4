package common

import "os"

const (
	COMPOSITORY_HOME_VARIABLE = `COMPOSITORY_HOME`
	COMPOSITORY_PRODUCT_NAME  = `COMPOSITORY_PRODUCT_NAME`
	COMPOSITORY_NAME          = `Compository`
)

type (
	ProductStrategy interface {
		Name() string
		ForceHome(string)
		HomeVariable() string
		Home() string
		SettingsFile() string
		LogFile() string
		HistoryFile() string
		DownloadsDir() string
	}

	compositoryStrategy struct {
		forcedHome string
	}
)

func CompositoryMode() ProductStrategy {
	return &compositoryStrategy{}
}

func (it *compositoryStrategy) Name() string {
	if value := os.Getenv(COMPOSITORY_PRODUCT_NAME); len(value) > 0 {
		return value
	}
	return COMPOSITORY_NAME
}

func (it *compositoryStrategy) ForceHome(value string) {
	it.forcedHome = value
}

func (it *compositoryStrategy) HomeVariable() string {
	return COMPOSITORY_HOME_VARIABLE
}

func (it *compositoryStrategy) Home() string {
	if len(it.forcedHome) > 0 {
		return ExpandPath(it.forcedHome)
	}
	home := os.Getenv(COMPOSITORY_HOME_VARIABLE)
	if len(home) > 0 {
		return ExpandPath(home)
	}
	return ExpandPath(defaultCompositoryLocation)
}

func (it *compositoryStrategy) SettingsFile() string {
	return it.Home() + string(os.PathSeparator) + "settings.yaml"
}

func (it *compositoryStrategy) LogFile() string {
	return it.Home() + string(os.PathSeparator) + "compository.log"
}

func (it *compositoryStrategy) HistoryFile() string {
	return it.Home() + string(os.PathSeparator) + "history.yaml"
}

func (it *compositoryStrategy) DownloadsDir() string {
	return it.Home() + string(os.PathSeparator) + "dnas"
}
