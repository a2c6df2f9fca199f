package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	ReceiptServiceName = "billsplitter.v1.ReceiptService"
	SplitServiceName   = "billsplitter.v1.SplitService"
	SessionServiceName = "billsplitter.v1.SessionService"
)

const (
	ReceiptServiceExtractReceiptProcedure   = "/" + ReceiptServiceName + "/ExtractReceipt"
	ReceiptServiceReconcileReceiptProcedure = "/" + ReceiptServiceName + "/ReconcileReceipt"
	ReceiptServiceGetReceiptProcedure       = "/" + ReceiptServiceName + "/GetReceipt"
	ReceiptServiceDeleteReceiptProcedure    = "/" + ReceiptServiceName + "/DeleteReceipt"
	ReceiptServiceListReceiptsProcedure     = "/" + ReceiptServiceName + "/ListReceipts"
	ReceiptServiceNormalizeItemsProcedure   = "/" + ReceiptServiceName + "/NormalizeItems"

	SplitServiceCalculateSplitProcedure = "/" + SplitServiceName + "/CalculateSplit"
	SplitServiceCreateSplitProcedure    = "/" + SplitServiceName + "/CreateSplit"
	SplitServiceGetSplitProcedure       = "/" + SplitServiceName + "/GetSplit"
	SplitServiceListSplitsProcedure     = "/" + SplitServiceName + "/ListSplits"
	SplitServiceDeleteSplitProcedure    = "/" + SplitServiceName + "/DeleteSplit"

	SessionServiceCreateSessionProcedure = "/" + SessionServiceName + "/CreateSession"
	SessionServiceGetSessionProcedure    = "/" + SessionServiceName + "/GetSession"
	SessionServiceUpdateSessionProcedure = "/" + SessionServiceName + "/UpdateSession"
	SessionServiceDeleteSessionProcedure = "/" + SessionServiceName + "/DeleteSession"
)

// NewReceiptServiceHandler builds an HTTP handler for the receipt service.
// It returns the path to mount it on.
func NewReceiptServiceHandler(svc *ReceiptService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, ReceiptServiceExtractReceiptProcedure, svc.ExtractReceipt, opts)
	unary(mux, ReceiptServiceReconcileReceiptProcedure, svc.ReconcileReceipt, opts)
	unary(mux, ReceiptServiceGetReceiptProcedure, svc.GetReceipt, opts)
	unary(mux, ReceiptServiceDeleteReceiptProcedure, svc.DeleteReceipt, opts)
	unary(mux, ReceiptServiceListReceiptsProcedure, svc.ListReceipts, opts)
	unary(mux, ReceiptServiceNormalizeItemsProcedure, svc.NormalizeItems, opts)
	return "/" + ReceiptServiceName + "/", mux
}

// NewSplitServiceHandler builds an HTTP handler for the split service.
func NewSplitServiceHandler(svc *SplitService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, SplitServiceCalculateSplitProcedure, svc.CalculateSplit, opts)
	unary(mux, SplitServiceCreateSplitProcedure, svc.CreateSplit, opts)
	unary(mux, SplitServiceGetSplitProcedure, svc.GetSplit, opts)
	unary(mux, SplitServiceListSplitsProcedure, svc.ListSplits, opts)
	unary(mux, SplitServiceDeleteSplitProcedure, svc.DeleteSplit, opts)
	return "/" + SplitServiceName + "/", mux
}

// NewSessionServiceHandler builds an HTTP handler for the session service.
func NewSessionServiceHandler(svc *SessionService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	unary(mux, SessionServiceCreateSessionProcedure, svc.CreateSession, opts)
	unary(mux, SessionServiceGetSessionProcedure, svc.GetSession, opts)
	unary(mux, SessionServiceUpdateSessionProcedure, svc.UpdateSession, opts)
	unary(mux, SessionServiceDeleteSessionProcedure, svc.DeleteSession, opts)
	return "/" + SessionServiceName + "/", mux
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func unary[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

func newClient[Req, Res any](httpClient connect.HTTPClient, baseURL, procedure string, opts []connect.ClientOption) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](httpClient, strings.TrimRight(baseURL, "/")+procedure, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}

// ReceiptServiceClient calls a remote receipt service.
type ReceiptServiceClient struct {
	extractReceipt   *connect.Client[ExtractReceiptRequest, ExtractReceiptResponse]
	reconcileReceipt *connect.Client[ReconcileReceiptRequest, ReconcileReceiptResponse]
	getReceipt       *connect.Client[GetReceiptRequest, GetReceiptResponse]
	deleteReceipt    *connect.Client[DeleteReceiptRequest, DeleteReceiptResponse]
	listReceipts     *connect.Client[ListReceiptsRequest, ListReceiptsResponse]
	normalizeItems   *connect.Client[NormalizeItemsRequest, NormalizeItemsResponse]
}

func NewReceiptServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ReceiptServiceClient {
	opts = clientOptions(opts)
	return &ReceiptServiceClient{
		extractReceipt:   newClient[ExtractReceiptRequest, ExtractReceiptResponse](httpClient, baseURL, ReceiptServiceExtractReceiptProcedure, opts),
		reconcileReceipt: newClient[ReconcileReceiptRequest, ReconcileReceiptResponse](httpClient, baseURL, ReceiptServiceReconcileReceiptProcedure, opts),
		getReceipt:       newClient[GetReceiptRequest, GetReceiptResponse](httpClient, baseURL, ReceiptServiceGetReceiptProcedure, opts),
		deleteReceipt:    newClient[DeleteReceiptRequest, DeleteReceiptResponse](httpClient, baseURL, ReceiptServiceDeleteReceiptProcedure, opts),
		listReceipts:     newClient[ListReceiptsRequest, ListReceiptsResponse](httpClient, baseURL, ReceiptServiceListReceiptsProcedure, opts),
		normalizeItems:   newClient[NormalizeItemsRequest, NormalizeItemsResponse](httpClient, baseURL, ReceiptServiceNormalizeItemsProcedure, opts),
	}
}

func (c *ReceiptServiceClient) ExtractReceipt(ctx context.Context, req *connect.Request[ExtractReceiptRequest]) (*connect.Response[ExtractReceiptResponse], error) {
	return c.extractReceipt.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) ReconcileReceipt(ctx context.Context, req *connect.Request[ReconcileReceiptRequest]) (*connect.Response[ReconcileReceiptResponse], error) {
	return c.reconcileReceipt.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) GetReceipt(ctx context.Context, req *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error) {
	return c.getReceipt.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) DeleteReceipt(ctx context.Context, req *connect.Request[DeleteReceiptRequest]) (*connect.Response[DeleteReceiptResponse], error) {
	return c.deleteReceipt.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) ListReceipts(ctx context.Context, req *connect.Request[ListReceiptsRequest]) (*connect.Response[ListReceiptsResponse], error) {
	return c.listReceipts.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) NormalizeItems(ctx context.Context, req *connect.Request[NormalizeItemsRequest]) (*connect.Response[NormalizeItemsResponse], error) {
	return c.normalizeItems.CallUnary(ctx, req)
}

// SplitServiceClient calls a remote split service.
type SplitServiceClient struct {
	calculateSplit *connect.Client[CalculateSplitRequest, CalculateSplitResponse]
	createSplit    *connect.Client[CreateSplitRequest, CreateSplitResponse]
	getSplit       *connect.Client[GetSplitRequest, GetSplitResponse]
	listSplits     *connect.Client[ListSplitsRequest, ListSplitsResponse]
	deleteSplit    *connect.Client[DeleteSplitRequest, DeleteSplitResponse]
}

func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SplitServiceClient {
	opts = clientOptions(opts)
	return &SplitServiceClient{
		calculateSplit: newClient[CalculateSplitRequest, CalculateSplitResponse](httpClient, baseURL, SplitServiceCalculateSplitProcedure, opts),
		createSplit:    newClient[CreateSplitRequest, CreateSplitResponse](httpClient, baseURL, SplitServiceCreateSplitProcedure, opts),
		getSplit:       newClient[GetSplitRequest, GetSplitResponse](httpClient, baseURL, SplitServiceGetSplitProcedure, opts),
		listSplits:     newClient[ListSplitsRequest, ListSplitsResponse](httpClient, baseURL, SplitServiceListSplitsProcedure, opts),
		deleteSplit:    newClient[DeleteSplitRequest, DeleteSplitResponse](httpClient, baseURL, SplitServiceDeleteSplitProcedure, opts),
	}
}

func (c *SplitServiceClient) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	return c.calculateSplit.CallUnary(ctx, req)
}

func (c *SplitServiceClient) CreateSplit(ctx context.Context, req *connect.Request[CreateSplitRequest]) (*connect.Response[CreateSplitResponse], error) {
	return c.createSplit.CallUnary(ctx, req)
}

func (c *SplitServiceClient) GetSplit(ctx context.Context, req *connect.Request[GetSplitRequest]) (*connect.Response[GetSplitResponse], error) {
	return c.getSplit.CallUnary(ctx, req)
}

func (c *SplitServiceClient) ListSplits(ctx context.Context, req *connect.Request[ListSplitsRequest]) (*connect.Response[ListSplitsResponse], error) {
	return c.listSplits.CallUnary(ctx, req)
}

func (c *SplitServiceClient) DeleteSplit(ctx context.Context, req *connect.Request[DeleteSplitRequest]) (*connect.Response[DeleteSplitResponse], error) {
	return c.deleteSplit.CallUnary(ctx, req)
}

// SessionServiceClient calls a remote session service.
type SessionServiceClient struct {
	createSession *connect.Client[CreateSessionRequest, SessionResponse]
	getSession    *connect.Client[GetSessionRequest, SessionResponse]
	updateSession *connect.Client[UpdateSessionRequest, SessionResponse]
	deleteSession *connect.Client[DeleteSessionRequest, DeleteSessionResponse]
}

func NewSessionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SessionServiceClient {
	opts = clientOptions(opts)
	return &SessionServiceClient{
		createSession: newClient[CreateSessionRequest, SessionResponse](httpClient, baseURL, SessionServiceCreateSessionProcedure, opts),
		getSession:    newClient[GetSessionRequest, SessionResponse](httpClient, baseURL, SessionServiceGetSessionProcedure, opts),
		updateSession: newClient[UpdateSessionRequest, SessionResponse](httpClient, baseURL, SessionServiceUpdateSessionProcedure, opts),
		deleteSession: newClient[DeleteSessionRequest, DeleteSessionResponse](httpClient, baseURL, SessionServiceDeleteSessionProcedure, opts),
	}
}

func (c *SessionServiceClient) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.createSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.getSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) UpdateSession(ctx context.Context, req *connect.Request[UpdateSessionRequest]) (*connect.Response[SessionResponse], error) {
	return c.updateSession.CallUnary(ctx, req)
}

func (c *SessionServiceClient) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	return c.deleteSession.CallUnary(ctx, req)
}
