// Package version хранит информацию о сборке, проставляемую через ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (string, string, string) {
	return version, commit, date
}

// Version возвращает только версию сборки, для health-ответа.
func Version() string {
	return version
}

// String возвращает строковое представление информации о сборке.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
