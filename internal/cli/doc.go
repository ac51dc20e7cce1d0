// Package cli implements the macrocli command tree with cobra.
//
// Every subcommand registers itself in subcommandFns from an init function
// and NewRootCommand attaches them all. Commands that touch data load the
// configuration, logger and telemetry through CLI.withRuntime and release
// them when the command returns.
//
//	macrocli run [--export]          clean all sources, merge, write run_manifest.json
//	macrocli clean <source>          clean one source
//	macrocli merge                   merge the clean tables on disk
//	macrocli export                  write final_dataset.xlsx
//	macrocli analyze [--format json] print the analytics report
//	macrocli serve [--port 8080]     serve the read-only HTTP API
//	macrocli version
package cli
