package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose  = "verbose"
	FlagConfig   = "config"
	FlagDataFile = "data-file"
	FlagLogFile  = "log-file"

	// Output format flags
	FlagJSON   = "json"
	FlagFormat = "format"

	// Timeline create flags
	FlagRecurrence = "recurrence"
	FlagFrequency  = "frequency"
	FlagWeekdays   = "weekdays"
	FlagDays       = "days"
	FlagTemplate   = "template"
	FlagStart      = "start"
	FlagEnd        = "end"

	// Timeline flags
	FlagOff    = "off"
	FlagRemove = "remove"

	// Node flags
	FlagAfter       = "after"
	FlagBefore      = "before"
	FlagTitle       = "title"
	FlagDescription = "description"
	FlagMilestone   = "milestone"
	FlagProgress    = "progress"
	FlagTarget      = "target"
	FlagUnit        = "unit"
	FlagDeadline    = "deadline"
	FlagSubtask     = "subtask"

	// Instances flags
	FlagFrom = "from"
	FlagTo   = "to"

	// Layout flags
	FlagStrategy = "strategy"

	// Memo flags
	FlagParent = "parent"
	FlagType   = "type"
	FlagAll    = "all"

	// Viewer flags
	FlagDensity = "density"

	// Init flags
	FlagDryRun = "dry-run"
	FlagForce  = "force"
	FlagGlobal = "global"
)
