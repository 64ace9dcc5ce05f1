// Package clean implements the cleaning pipeline that turns a raw survey
// export into the coded, laid-out table the exporters write.
//
// # Architecture
//
// The pipeline is a fixed sequence of stages, each implementing the Stage
// interface and operating on a shared State:
//
//   - validate: applies the codeframe's validation rules, splits the table
//     into kept and rejected rows
//   - encode: expands multi-select questions into 0/1 indicator columns
//   - recode: replaces response labels with their integer codes
//   - wave: derives the fieldwork wave from the completion timestamp
//   - layout: renames raw headers to variable names and orders the final
//     columns
//
// The Runner executes the stages in order and aborts on the first error.
// Every error is a coded PipelineError naming the offending row, question
// or label, so a failed run points at the cell that caused it.
//
// # Usage
//
//	state := clean.NewState(frame, policy, start, table)
//	runner := clean.NewRunner(clean.Stages()...)
//	if err := runner.Run(ctx, state); err != nil {
//	    return err
//	}
//	// state.Table is the cleaned table, state.Rejected the QA rows.
//
// # Determinism
//
// Stages never consult the wall clock or map iteration order for anything
// that reaches the output, so identical input produces identical output
// across runs.
package clean
