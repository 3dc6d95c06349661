// Command schema prints the JSON schema of the configuration file, for
// editor completion and CI validation of config changes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/urfave/cli/v3"

	"github.com/halcyon-lab/synthsignal/internal/config"
	"github.com/halcyon-lab/synthsignal/internal/version"
)

func schemaAction(_ context.Context, cmd *cli.Command) error {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(&config.Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	if path := cmd.String("output"); path != "" {
		return os.WriteFile(path, append(out, '\n'), 0o644)
	}

	fmt.Println(string(out))

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "schema",
		Usage:   "Print the JSON schema for the config file",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the schema to a file instead of stdout",
			},
		},
		Action: schemaAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
