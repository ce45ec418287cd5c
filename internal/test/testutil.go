// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package testutil contains helpers for tests, which need other processes.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// TestAppResult is a result of a 'go run' program launch
type TestAppResult struct {
	Output string
	Err    error
}

// StringToBytes takes an input string in a 2-hex-symbol per byte format
// and returns corresponding byte array.
// Input must not contain any symbols except [A-F0-9]
func StringToBytes(input string) ([]byte, error) {
	if len(input)%2 != 0 {
		return nil, errors.New("invalid byte array len")
	}
	var err error
	var b byte
	buff := bytes.NewBuffer(nil)
	for err == nil {
		if len(input) < 2 {
			err = io.EOF
		} else if _, err = fmt.Sscanf(input[:2], "%X", &b); err == nil {
			buff.WriteByte(b)
			input = input[2:]
		}
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buff.Bytes(), nil
}

// BytesToString convert a byte slice into its string representation.
// Each byte is represented as a 2 upper-case letters for A-F
func BytesToString(data []byte) string {
	buff := bytes.NewBuffer(nil)
	for _, value := range data {
		fmt.Fprintf(buff, "%02X", value)
	}
	return buff.String()
}

// launch helpers

func startTestApp(args []string) (*exec.Cmd, *bytes.Buffer, error) {
	args = append([]string{"run"}, args...)
	cmd := exec.Command("go", args...)
	buff := bytes.NewBuffer(nil)
	cmd.Stderr = buff
	cmd.Stdout = buff
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return cmd, buff, nil
}

func waitForCommand(cmd *exec.Cmd, buff *bytes.Buffer) (result TestAppResult) {
	if result.Err = cmd.Wait(); result.Err != nil {
		if exiterr, ok := result.Err.(*exec.ExitError); ok {
			if status, ok := exiterr.Sys().(syscall.WaitStatus); ok {
				result.Err = errors.Errorf("%v, status code = %d", result.Err, status.ExitStatus())
			}
		}
	} else if !cmd.ProcessState.Success() {
		result.Err = errors.New("process has exited with an error")
	}
	result.Output = buff.String()
	return
}

// RunTestApp starts a go program via 'go run' and waits for it to finish.
func RunTestApp(args []string) (result TestAppResult) {
	if cmd, buff, err := startTestApp(args); err == nil {
		result = waitForCommand(cmd, buff)
	} else {
		result.Err = err
	}
	return
}

// RunTestAppAsync starts a go program via 'go run' and returns immediately.
// To wait for the program to finish, receive on TestAppResult chan.
func RunTestAppAsync(args []string) <-chan TestAppResult {
	ch := make(chan TestAppResult, 1)
	if cmd, buff, err := startTestApp(args); err != nil {
		ch <- TestAppResult{Err: err}
	} else {
		go func() {
			ch <- waitForCommand(cmd, buff)
		}()
	}
	return ch
}

// WaitForAppResultChan waits for a value from ch with a timeout
func WaitForAppResultChan(ch <-chan TestAppResult, d time.Duration) (TestAppResult, bool) {
	select {
	case value := <-ch:
		return value, true
	case <-time.After(d):
		return TestAppResult{}, false
	}
}
