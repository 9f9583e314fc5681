package util

const CollectorVersion = "0.1.0"

// ExecutableName - Process name of the collector, also used as syslog tag and
// MongoDB application name
const ExecutableName = "querystats-collector"

const CollectorNameAndVersion = ExecutableName + " " + CollectorVersion
