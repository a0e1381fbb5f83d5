package utils

import (
	"crypto/rand"
	"encoding/json"
	"flag"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func GenerateRandomBytes(size uint32) []byte {
	token := make([]byte, size)
	rand.Read(token)
	return token
}

// ParseFlags parses -dev and -env and loads the selected .env file. A missing
// file is only fatal in production mode.
func ParseFlags() bool {
	devMode := flag.Bool("dev", false, "Run in dev mode")
	envFile := flag.String("env", "", ".env file path")

	flag.Parse()

	file := func() string {
		if len(*envFile) > 0 {
			return *envFile
		}

		return ".prod.env"
	}()

	if err := godotenv.Load(file); err != nil {
		if !*devMode {
			log.Panic().Err(err).Str("file", file).Msg("Could not load .env file")
		}
		log.Warn().Str("file", file).Msg("No .env file, using process environment")
	}

	return !*devMode
}

func IsInList(item string, list *[]string) int {
	for i, val := range *list {
		if val == item {
			return i
		}
	}
	return -1
}

func MapList[T, S any](list *[]T, fn func(a *T) S) []S {
	res := make([]S, len(*list))
	for i := range *list {
		res[i] = fn(&(*list)[i])
	}
	return res
}

func Format(in string, data map[string]string) string {
	for k, v := range data {
		in = strings.Replace(string(in), k, v, -1)
	}
	return in
}

func ValidateStruct(err error) []*ErrorResponse {
	var errors []*ErrorResponse
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "body", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range validationErrors {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

func ConvertConfig[T, S any](input T) (*S, error) {
	res, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	cfg := new(S)
	err = json.Unmarshal(res, cfg)

	return cfg, err
}
