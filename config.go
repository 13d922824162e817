package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Google struct {
		APIKey string `json:"apiKey"`
		CSEID  string `json:"cseId"`
	} `json:"google.com"`
	Server struct {
		Port string `json:"port"`
	} `json:"server"`
	Database          string `json:"database"`
	ImageCacheSeconds int    `json:"imageCacheSeconds"`
	Debug             struct {
		PrettyJson bool `json:"prettyJson"`
	} `json:"debug"`
}

const configFile = "conf/config.json"

// loadConfig reads conf/config.json when present, then applies environment
// overrides (a .env file is honoured). Credentials are typically supplied
// through GOOGLE_API_KEY and GOOGLE_CSE_ID.
func loadConfig(cfg *Config, log *logrus.Logger) {
	_ = godotenv.Load()

	f, err := os.Open(configFile)
	if err == nil {
		defer f.Close()
		decoder := json.NewDecoder(f)
		switch err := decoder.Decode(cfg).(type) {
		case *json.SyntaxError:
			f.Seek(0, io.SeekStart)
			pos := findPos(bufio.NewReader(f), int(err.Offset))
			log.Panicf("Unable to decode configuration file (Line: %d, Pos: %d); - %v", pos.line, pos.pos, err.Error())
		}
	}

	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Google.APIKey = v
	}
	if v := os.Getenv("GOOGLE_CSE_ID"); v != "" {
		cfg.Google.CSEID = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("IMAGE_CACHE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ImageCacheSeconds = n
		}
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8081"
	}
	if cfg.ImageCacheSeconds <= 0 {
		cfg.ImageCacheSeconds = 3600
	}
}

type FilePos struct {
	line int
	pos  int
}

func findPos(file *bufio.Reader, offset int) FilePos {
	p := FilePos{line: 1, pos: offset}
	var lineLen int
	for line, err := file.ReadBytes('\n'); len(line) > 0 && err == nil; line, err = file.ReadBytes('\n') {
		if p.pos < len(line) {
			return p
		}
		lineLen += len(line)
		if line[len(line)-1] == '\n' {
			p.line += 1
			p.pos -= lineLen
			lineLen = 0
		}
	}
	return p
}
