package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates the process logger: JSON lines tagged with the service name.
func New(serviceName, level string) *logrus.Logger {
	return NewWithOutput(serviceName, level, os.Stdout)
}

func NewWithOutput(serviceName, level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(out)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	log.AddHook(serviceHook{name: serviceName})

	return log
}

// serviceHook stamps every entry with the service field.
type serviceHook struct {
	name string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.name
	return nil
}
