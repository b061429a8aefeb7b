package version

import "fmt"

// Заполняются через -ldflags "-X github.com/vladislavdragonenkov/restaurant/internal/version.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

// GetVersion возвращает только версию; её отдаёт health-handler.
func GetVersion() string { return version }

// String — строка для лога старта сервиса.
func String() string {
	v, c, d := Info()
	return fmt.Sprintf("restaurant version=%s commit=%s date=%s", v, c, d)
}
