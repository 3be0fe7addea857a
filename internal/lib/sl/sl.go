// Package sl содержит вспомогательные функции для работы с логгером slog:
// создание логгера процесса и единообразное поле ошибки.
package sl

import (
	"io"
	"log/slog"
)

// EnvLocal — окружение разработчика, в нём включён уровень debug.
const EnvLocal = "local"

// New создаёт текстовый логгер процесса. Для env=local уровень debug, иначе info.
func New(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if env == EnvLocal {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
