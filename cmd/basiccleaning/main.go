// Package main provides the entry point for the basiccleaning CLI.
//
// basiccleaning fetches a raw CSV artifact, keeps the rows whose price lies
// in an inclusive range and that have no missing values, and publishes the
// result as a new artifact version.
//
// Usage:
//
//	basiccleaning --input_artifact sample.csv:latest \
//	  --output_artifact clean_sample.csv --output_type clean_sample \
//	  --output_description "Data with outliers and null values removed" \
//	  --min_price 10 --max_price 350
//
// See --help for all available options.
package main

func main() {
	Execute()
}
