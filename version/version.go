package version

// Version is the tool version reported by --version and in run reports.
const Version = "1.0.0"
