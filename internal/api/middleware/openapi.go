// openapi.go — middleware валидации запросов по OpenAPI контракту.
// Запросы к /gestiones проверяются против встроенного документа
// (типы полей, path-параметры); запросы к путям вне контракта
// (health, metrics) пропускаются без проверки.
package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	apierrors "github.com/bigkaa/gestion-module/internal/api/errors"
)

// OpenAPIValidator возвращает middleware, валидирующий запросы по
// OpenAPI документу spec. Ошибка загрузки документа — ошибка конфигурации.
func OpenAPIValidator(spec []byte) (func(http.Handler) http.Handler, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, err
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				// Пути вне контракта (health, metrics) и неизвестные
				// маршруты отдаём дальше — решает chi.
				if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
					next.ServeHTTP(w, r)
					return
				}
				apierrors.InternalError(w, "Ошибка маршрутизации запроса")
				return
			}

			// Тело читаем заранее и восстанавливаем после валидации:
			// обработчику нужен нетронутый Reader.
			var body []byte
			if r.Body != nil {
				body, err = io.ReadAll(r.Body)
				if err != nil {
					apierrors.ValidationError(w, "Ошибка чтения тела запроса", nil)
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}

			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				var reqErr *openapi3filter.RequestError
				if errors.As(err, &reqErr) {
					apierrors.ValidationError(w, "Запрос не соответствует контракту: "+reqErr.Error(), nil)
					return
				}
				apierrors.ValidationError(w, "Запрос не соответствует контракту", nil)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}

	return mw, nil
}
