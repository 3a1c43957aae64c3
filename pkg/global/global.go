package global

var (
	Version   = "0.0.1"
	BuildTime = "none"
	// Verbosity is the number of times -v was passed.
	Verbosity = 0
	// AssumeYes skips the confirmation asked before touching a production environment.
	AssumeYes = false
)
