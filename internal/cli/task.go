package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewTaskCmd создаёт группу команд для управления task.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(
		newTaskCreateCmd(clientFn, outputFn),
		newTaskDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		req      CreateTaskRequest
		headers  []string
		query    []string
		body     string
		bodyFile string
	)

	cmd := &cobra.Command{
		Use:   "create METHOD URL",
		Short: "Queue an HTTP call for asynchronous execution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req.Method = strings.ToUpper(args[0])
			req.URL = args[1]

			var err error
			if req.Headers, err = parsePairs(headers, ":"); err != nil {
				return fmt.Errorf("--header: %w", err)
			}
			if req.QueryParams, err = parsePairs(query, "="); err != nil {
				return fmt.Errorf("--query: %w", err)
			}
			if req.Body, err = readBody(body, bodyFile); err != nil {
				return err
			}

			res, err := client.CreateTask(cmd.Context(), req)
			if err != nil {
				return err
			}

			out.Print(
				[]string{"TASK_ID", "STATUS", "CREATED"},
				[][]string{{res.TaskID, res.Status, res.CreatedAt}},
				res,
			)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.CallbackURL, "callback", "", "Callback URL for the result (required)")
	f.StringArrayVarP(&headers, "header", "H", nil, "Request header 'Name: value' (repeatable)")
	f.StringArrayVarP(&query, "query", "q", nil, "Query parameter key=value (repeatable)")
	f.StringVarP(&body, "data", "d", "", "JSON request body")
	f.StringVar(&bodyFile, "data-file", "", "Read JSON request body from file")
	f.IntVar(&req.Timeout, "timeout", 0, "Call timeout in milliseconds")
	f.IntVar(&req.MaxRetries, "max-retries", 0, "Maximum attempts (1-10)")
	f.IntVar(&req.RetryDelay, "retry-delay", 0, "Base retry delay in milliseconds")
	f.BoolVar(&req.Sequential, "sequential", false, "Run in the sequential queue")
	cmd.MarkFlagRequired("callback")

	return cmd
}

func newTaskDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TASK_ID",
		Short: "Remove a task from its queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			res, err := client.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return out.Result(res)
		},
	}
}

// parsePairs разбирает "key<sep>value" в map.
func parsePairs(pairs []string, sep string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, sep)
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid value %q (expected key%svalue)", p, sep)
		}
		m[key] = strings.TrimSpace(val)
	}
	return m, nil
}

// readBody возвращает тело из флага или файла; тело должно быть JSON.
func readBody(inline, file string) (json.RawMessage, error) {
	if inline != "" && file != "" {
		return nil, fmt.Errorf("--data and --data-file are mutually exclusive")
	}

	data := []byte(inline)
	if file != "" {
		var err error
		if data, err = os.ReadFile(file); err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, nil
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	return json.RawMessage(data), nil
}
