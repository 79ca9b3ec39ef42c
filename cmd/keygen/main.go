// keygen prints a fresh access and refresh RSA key pair as .env lines.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/jrsteele09/go-task-server/token/keys"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	bits := flag.Int("bits", 2048, "RSA key size")
	raw := flag.Bool("raw", false, "print PEM instead of base64-encoded PEM")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	material, err := keys.GenerateMaterial(*bits)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate keys")
	}

	for _, role := range []keys.Role{keys.RoleAccess, keys.RoleRefresh} {
		if err := printPair(material, role, *raw); err != nil {
			log.Fatal().Err(err).Str("role", string(role)).Msg("Failed to export keys")
		}
	}
}

func printPair(material *keys.Material, role keys.Role, raw bool) error {
	kp, err := material.Pair(role)
	if err != nil {
		return err
	}
	private, err := kp.ExportPrivateKeyPEM()
	if err != nil {
		return err
	}
	public, err := kp.ExportPublicKeyPEM()
	if err != nil {
		return err
	}

	prefix := "ACCESS"
	if role == keys.RoleRefresh {
		prefix = "REFRESH"
	}
	if raw {
		fmt.Printf("%s_TOKEN_PRIVATE_KEY=%q\n", prefix, private)
		fmt.Printf("%s_TOKEN_PUBLIC_KEY=%q\n", prefix, public)
		return nil
	}
	fmt.Printf("%s_TOKEN_PRIVATE_KEY=%s\n", prefix, base64.StdEncoding.EncodeToString([]byte(private)))
	fmt.Printf("%s_TOKEN_PUBLIC_KEY=%s\n", prefix, base64.StdEncoding.EncodeToString([]byte(public)))
	return nil
}
