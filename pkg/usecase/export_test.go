package usecase

// SanitizeText is exported for testing
var SanitizeText = sanitizeText
