package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"go.viam.com/motiondetect/components/camera"
)

// SchemaAction prints the attribute schema of the given camera model, or the registered model
// names when no model is given.
func SchemaAction(c *cli.Context) error {
	if c.Args().Len() == 0 {
		for _, model := range camera.RegisteredModels() {
			fmt.Fprintln(c.App.Writer, model)
		}
		return nil
	}
	schema, err := camera.ModelSchema(c.Args().First())
	if err != nil {
		return err
	}
	return printJSON(c, schema)
}
