package internal

// Version is the screentrans release version
const Version = "0.1.0"
