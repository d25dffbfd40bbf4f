// Package command maps slash-command paths to typed handlers.
//
// A Registry is a build-once tree: every Register call inserts a leaf at a
// path of one to three segments ("today", "task add", "task ai add"),
// creating intermediate branches as needed. After startup the tree is only
// read, so concurrent lookups need no locking.
//
// # Request Flow
//
//  1. ResolvePath turns the wire payload into a Path and the leaf's own options
//  2. Registry.Resolve walks the tree to the leaf
//  3. The leaf's Handler binds the options against its Schema
//  4. The typed handler function runs with the bound command
//
// # Binding
//
// A Schema is a plain table of fields. Each field pairs an option name with
// a Converter (wire type + pure conversion) and a setter on the command
// struct:
//
//	type TaskAdd struct {
//		Text string
//		Due  *string
//	}
//
//	schema := command.Schema[TaskAdd]{
//		command.Required("text", command.String, func(c *TaskAdd, v string) { c.Text = v }),
//		command.Optional("due", command.String, func(c *TaskAdd, v *string) { c.Due = v }),
//	}
//
//	command.Register(reg, "task add", "Add a task", schema, handleTaskAdd)
//
// Binding fails with ErrMissingField or ErrInvalidType and never exposes a
// partially bound command; the handler is not invoked and the user gets a
// generic ephemeral parse-failure reply.
//
// # Export
//
// ExportWireSchema flattens the tree into the platform's bulk command
// declaration. Registration mistakes (duplicate leaves, inserting beneath a
// leaf) panic: they are programming errors caught at startup.
package command
