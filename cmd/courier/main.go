// Command courier is a small request tool built on the courier library:
// it issues a single call through the full pipeline and prints the decoded
// envelope.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/courierhttp/courier"
)

var (
	flagBaseURL string
	flagHeaders []string
	flagQuery   []string
	flagTimeout time.Duration
	flagData    string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:           "courier",
		Short:         "HTTP request client with a middleware pipeline",
		Version:       courier.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "base URL prepended to the endpoint")
	root.PersistentFlags().StringArrayVarP(&flagHeaders, "header", "H", nil, "request header, key=value (repeatable)")
	root.PersistentFlags().StringArrayVarP(&flagQuery, "query", "q", nil, "query parameter, key=value (repeatable)")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	for _, method := range []string{"get", "delete"} {
		root.AddCommand(methodCommand(method, false))
	}
	for _, method := range []string{"post", "put", "patch"} {
		root.AddCommand(methodCommand(method, true))
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func methodCommand(method string, hasBody bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   method + " <endpoint>",
		Short: "Issue a " + strings.ToUpper(method) + " request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), strings.ToUpper(method), args[0])
		},
	}
	if hasBody {
		cmd.Flags().StringVarP(&flagData, "data", "d", "", "request body (JSON text)")
	}
	return cmd
}

func run(ctx context.Context, method, endpoint string) error {
	options := []courier.Option{
		courier.WithBaseURL(flagBaseURL),
		courier.WithTimeout(flagTimeout),
	}
	if flagVerbose {
		options = append(options, courier.WithSimpleLogger())
	}
	client := courier.New(options...)

	spec := &courier.Request{
		Method:  method,
		Headers: map[string]string{},
		Query:   map[string]interface{}{},
	}
	for _, header := range flagHeaders {
		key, value, ok := strings.Cut(header, "=")
		if !ok {
			return fmt.Errorf("invalid header %q, expected key=value", header)
		}
		spec.Headers[key] = value
	}
	for _, param := range flagQuery {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			return fmt.Errorf("invalid query parameter %q, expected key=value", param)
		}
		spec.Query[key] = value
	}
	if flagData != "" {
		var parsed interface{}
		if err := json.Unmarshal([]byte(flagData), &parsed); err == nil {
			spec.Body = parsed
		} else {
			spec.Body = flagData
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := client.Request(ctx, endpoint, spec)
	if err != nil {
		return err
	}

	fmt.Printf("%d %s\n", resp.Status, resp.StatusText)
	switch body := resp.Body.(type) {
	case nil:
	case string:
		fmt.Println(body)
	case []byte:
		os.Stdout.Write(body)
	default:
		pretty, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			fmt.Printf("%v\n", body)
			break
		}
		fmt.Println(string(pretty))
	}
	return nil
}
