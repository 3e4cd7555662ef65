package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/kyc-verifier/internal/core/pipeline"
	"github.com/joseph-ayodele/kyc-verifier/internal/repository"
)

type ServerTestSuite struct {
	suite.Suite
	db     *repository.DB
	gs     *grpc.Server
	conn   *grpc.ClientConn
	client *VerifierClient
	ctx    context.Context
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := repository.OpenSQLite(repository.InMemory, nil)
	s.Require().NoError(err)
	s.db = db
	repo := repository.NewVerificationRepository(db, nil)
	s.Require().NoError(repo.Migrate(s.ctx))

	proc := pipeline.NewProcessor(nil, nil, nil, nil, pipeline.WithStore(repo))
	s.gs, _ = NewGRPCServer(NewVerificationService(proc, repo, nil), nil)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.gs.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	s.Require().NoError(err)
	s.conn = conn
	s.client = NewVerifierClient(conn)
}

func (s *ServerTestSuite) TearDownTest() {
	_ = s.conn.Close()
	s.gs.Stop()
	repository.Close(s.db, nil)
}

func (s *ServerTestSuite) mustStruct(m map[string]any) *structpb.Struct {
	st, err := structpb.NewStruct(m)
	s.Require().NoError(err)
	return st
}

func field(value string) map[string]any {
	return map[string]any{"value": value, "raw_context": nil, "confidence": "medium", "source": "groq"}
}

func (s *ServerTestSuite) extraction() map[string]any {
	doc := func(name string) map[string]any {
		return map[string]any{
			"full_name":      field(name),
			"date_of_birth":  field("15/08/1990"),
			"pan_number":     field("abcde1234f"),
			"aadhaar_number": field("2345 6789 0123"),
			"phone_number":   field("98765 43210"),
		}
	}
	return map[string]any{
		"government_id":     doc("John Doe"),
		"bank_statement":    doc("JOHN DOE"),
		"employment_letter": doc("john doe"),
	}
}

func (s *ServerTestSuite) TestVerifyPersonAndGet() {
	resp, err := s.client.VerifyPerson(s.ctx, s.mustStruct(map[string]any{
		"person_id":  "person_001",
		"extraction": s.extraction(),
	}))
	s.Require().NoError(err)

	out := resp.AsMap()
	s.Equal("person_001", out["person_id"])
	s.Equal("VERIFIED", out["overall_status"])
	rules, ok := out["verification_results"].(map[string]any)
	s.Require().True(ok)
	s.Len(rules, 7)
	s.Equal("PASS", rules["rule_1_name_match"].(map[string]any)["status"])
	s.Equal("PASS", rules["rule_6_pan_format"].(map[string]any)["status"])

	got, err := s.client.GetVerification(s.ctx, s.mustStruct(map[string]any{"person_id": "person_001"}))
	s.Require().NoError(err)
	rec := got.AsMap()
	s.Equal("VERIFIED", rec["overall_status"])
	s.NotEmpty(rec["id"])
	ext := rec["extraction"].(map[string]any)
	gov := ext["government_id"].(map[string]any)
	s.Equal("1990-08-15", gov["date_of_birth"].(map[string]any)["value"], "stored values are normalized")
}

func (s *ServerTestSuite) TestVerifyPersonRejectsBadInput() {
	_, err := s.client.VerifyPerson(s.ctx, s.mustStruct(map[string]any{"extraction": s.extraction()}))
	s.Equal(codes.InvalidArgument, status.Code(err))

	_, err = s.client.VerifyPerson(s.ctx, s.mustStruct(map[string]any{
		"person_id":  "person_001",
		"extraction": map[string]any{"passport": map[string]any{}},
	}))
	s.Equal(codes.InvalidArgument, status.Code(err))

	_, err = s.client.VerifyPerson(s.ctx, s.mustStruct(map[string]any{"person_id": "../etc"}))
	s.Equal(codes.InvalidArgument, status.Code(err))
}

func (s *ServerTestSuite) TestVerifyPersonEmptyExtractionFails() {
	resp, err := s.client.VerifyPerson(s.ctx, s.mustStruct(map[string]any{"person_id": "person_002"}))
	s.Require().NoError(err)
	s.Equal("FAILED", resp.AsMap()["overall_status"])
}

func (s *ServerTestSuite) TestGetVerificationNotFound() {
	_, err := s.client.GetVerification(s.ctx, s.mustStruct(map[string]any{"person_id": "nobody"}))
	s.Equal(codes.NotFound, status.Code(err))
}

func (s *ServerTestSuite) TestHealth() {
	resp, err := healthpb.NewHealthClient(s.conn).Check(s.ctx, &healthpb.HealthCheckRequest{Service: VerifierServiceName})
	s.Require().NoError(err)
	s.Equal(healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestGetVerificationWithoutStore(t *testing.T) {
	svc := NewVerificationService(pipeline.NewProcessor(nil, nil, nil, nil), nil, nil)
	st, _ := structpb.NewStruct(map[string]any{"person_id": "p1"})
	_, err := svc.GetVerification(context.Background(), st)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}
