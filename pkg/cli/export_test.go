package cli

var IndexConfig = indexConfig
