// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Singleton log writer. Writes to stdout, and optionally to a file.
// Does not add prefixes, or force newlines. Safe for concurrent use,
// so parallel operators can share it.

var logMutex  sync.Mutex
var logFile   *bufio.Writer // the optional additional file to log into
var logFileOS *os.File

// The log as a writer, for passing to operators and heatmap options
var LogWriter io.Writer=logWriter{}

type logWriter struct{}

func (logWriter) Write(b []byte) (n int, err error) {
	logMutex.Lock()
	defer logMutex.Unlock()
	n, err=os.Stdout.Write(b)
	if err!=nil || logFile==nil { return n, err }
	return logFile.Write(b)
}

// Enables logging to file, closing any previous log file
func LogAlsoToFile(fileName string) (err error) {
	if err:=LogClose(); err!=nil { return err }
	f, err:=os.OpenFile(fileName, os.O_CREATE | os.O_TRUNC | os.O_WRONLY, 0666)
	if err!=nil { return err }
	logMutex.Lock()
	logFileOS, logFile=f, bufio.NewWriter(f)
	logMutex.Unlock()
	return nil
}

func LogPrint(args ...interface{}) (n int, err error) {
	return fmt.Fprint(LogWriter, args...)
}

func LogPrintln(args ...interface{}) (n int, err error) {
	return fmt.Fprintln(LogWriter, args...)
}

func LogPrintf(format string, args ...interface{}) (n int, err error) {
	return fmt.Fprintf(LogWriter, format, args...)
}

func LogFatal(args ...interface{}) {
	fmt.Fprintln(LogWriter, args...)
	LogClose()
	os.Exit(1)
}

func LogFatalf(format string, args ...interface{}) {
	fmt.Fprintf(LogWriter, format, args...)
	LogClose()
	os.Exit(1)
}

// Flushes the log file to disk
func LogSync() error {
	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile==nil { return nil }
	if err:=logFile.Flush(); err!=nil { return err }
	return logFileOS.Sync()
}

// Flushes and closes the log file. Stdout logging continues
func LogClose() error {
	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile==nil { return nil }
	err:=logFile.Flush()
	if e:=logFileOS.Close(); err==nil { err=e }
	logFile, logFileOS=nil, nil
	return err
}
