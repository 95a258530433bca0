package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/groceries-db/internal/common"
)

const (
	MetadataOwnerID   = "x-owner-id"
	MetadataRequestID = "x-request-id"

	healthPrefix = "/grpc.health.v1.Health/"
)

// UnaryInterceptor attaches the owner, request id and a request-scoped
// logger to every call, and maps returned errors to status codes.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthPrefix) {
			return handler(ctx, req)
		}
		start := time.Now()
		md, _ := metadata.FromIncomingContext(ctx)

		requestID := first(md, MetadataRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(MetadataRequestID, requestID))

		ownerID := first(md, MetadataOwnerID)
		log := logger.With("method", info.FullMethod, "request_id", requestID)
		if ownerID == "" {
			log.Warn("rpc.rejected", "reason", "missing owner")
			return nil, common.InvalidArgumentError(MetadataOwnerID + " metadata is required")
		}
		if _, err := uuid.Parse(ownerID); err != nil {
			log.Warn("rpc.rejected", "reason", "invalid owner", "owner_id", ownerID)
			return nil, common.InvalidArgumentError(MetadataOwnerID + " must be a UUID")
		}
		log = log.With("owner_id", ownerID)

		ctx = common.WithRequestID(ctx, requestID)
		ctx = common.WithOwnerID(ctx, ownerID)
		ctx = common.WithLogger(ctx, log)

		resp, err := handler(ctx, req)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			err = toStatus(err)
			code := status.Code(err)
			if code == codes.Internal || code == codes.Unavailable {
				log.Error("rpc.failed", "code", code.String(), "elapsed_ms", elapsed, "error", err)
			} else {
				log.Info("rpc.failed", "code", code.String(), "elapsed_ms", elapsed, "error", err)
			}
			return nil, err
		}
		log.Debug("rpc.ok", "elapsed_ms", elapsed)
		return resp, nil
	}
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}
