// Пакет openapi содержит встроенный OpenAPI контракт Gestion Module.
package openapi

import _ "embed"

// Spec — OpenAPI 3.0 документ API.
//
//go:embed openapi.yaml
var Spec []byte
