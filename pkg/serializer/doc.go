// Package serializer moves portal data in and out of the process.
//
// Output goes through Writer in JSON, YAML or table form:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	defer w.Close()
//	if err := w.Serialize(ctx, files); err != nil {
//		return err
//	}
//
// HTTP handlers reply with RespondJSON or RespondYAML and decode request
// bodies with Decode. HttpReader builds the outbound client used for the
// registry and git host APIs.
package serializer
