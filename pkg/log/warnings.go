package log

import (
	"github.com/rs/zerolog"

	salaryErrors "github.com/YuminosukeSato/salaryml/pkg/errors"
)

// InstallWarningHook routes errors.Warn through the current provider.
// Warnings that implement zerolog.LogObjectMarshaler keep their structured fields.
func InstallWarningHook() {
	salaryErrors.SetZerologWarnFunc(func(w error) {
		logger := GetLoggerWithName("warnings")
		var m zerolog.LogObjectMarshaler
		if salaryErrors.As(w, &m) {
			logger.Warn(w.Error(), "warning", m)
			return
		}
		logger.Warn(w.Error())
	})
}
