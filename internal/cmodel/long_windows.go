package cmodel

// Long is the width of C long. Windows is LLP64 on every architecture.
const Long = 4
