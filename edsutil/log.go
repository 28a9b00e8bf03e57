/*
Copyright © 2024 the EDS authors.
This file is part of EDS.

EDS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EDS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EDS.  If not, see <http://www.gnu.org/licenses/>.
*/


package edsutil

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// setLogger returns a logger that writes to out and to logFile, and a
// function that closes the log file.
func setLogger(out io.Writer, logFile string, level logrus.Level, u *uploader) (*logrus.Logger, func(), error) {
	f, err := os.Create(u.maybeUpload(logFile))
	if err != nil {
		return nil, nil, fmt.Errorf("edsutil: problem creating log file: %v", err)
	}
	log := logrus.New()
	log.Out = io.MultiWriter(out, f)
	log.Formatter = &logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	}
	log.Level = level
	return log, func() { f.Close() }, nil
}
