package core

// Logger reports messages and errors.
// args may carry errors, maps of extras, or the Person the message relates to.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the user a log entry relates to.
type Person struct {
	ID       string
	Username string
	Email    string
	Tenant   string
}
