package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/Freeeeeet/tutoring_scheduler/internal/dispatch"

// NewValidator валидатор, который называет поля по json-тегам
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// Validation проверяет теги validate до вызова обработчика
func Validation(v *validator.Validate) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) (any, error) {
			if err := v.StructCtx(ctx, req); err != nil {
				return nil, validationError(err)
			}
			return next(ctx, req)
		}
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.Validationf("invalid request: %v", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}

	if len(missing) > 0 {
		return model.Validationf("missing fields: %s", strings.Join(missing, ", "))
	}
	return model.Validationf("invalid fields: %s", strings.Join(invalid, ", "))
}

// Logging пишет вид запроса, длительность и код ошибки
func Logging(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) (any, error) {
			started := time.Now()
			out, err := next(ctx, req)

			fields := []zap.Field{
				zap.String("kind", string(req.Kind())),
				zap.Duration("duration", time.Since(started)),
			}
			switch code := model.CodeOf(err); {
			case err == nil:
				logger.Debug("Request handled", fields...)
			case code != "":
				logger.Info("Request rejected", append(fields, zap.String("code", string(code)), zap.Error(err))...)
			default:
				logger.Error("Request failed", append(fields, zap.Error(err))...)
			}

			return out, err
		}
	}
}

// Tracing открывает span на каждый запрос
func Tracing(tp trace.TracerProvider) Middleware {
	tracer := tp.Tracer(tracerName)
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) (any, error) {
			ctx, span := tracer.Start(ctx, "dispatch."+string(req.Kind()),
				trace.WithAttributes(attribute.String("dispatch.kind", string(req.Kind()))),
			)
			defer span.End()

			out, err := next(ctx, req)
			if err != nil {
				if code := model.CodeOf(err); code != "" {
					span.SetAttributes(attribute.String("dispatch.error_code", string(code)))
				}
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return out, err
		}
	}
}
