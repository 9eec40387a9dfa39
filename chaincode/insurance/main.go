package main

import (
	"log"
	"os"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/chaincode/insurance/claims"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/chaincode/insurance/registry"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/chaincode/insurance/verification"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/config"
	"github.com/chiragshirsath07/Blockchain-Based-Medical-Insurance-Claim-System/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Panicf("Error loading configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel)

	accessRegistry := registry.NewSmartContract(logg)
	claimLedger := claims.NewSmartContract(accessRegistry, logg)
	verificationEngine := verification.NewSmartContract(accessRegistry, claimLedger, logg)

	chaincode, err := contractapi.NewChaincode(accessRegistry, claimLedger, verificationEngine)
	if err != nil {
		log.Panicf("Error creating insurance claim chaincode: %v", err)
	}

	// With a server address configured the peer's external builder launched
	// us as chaincode-as-a-service; otherwise the peer manages the process.
	if cfg.Chaincode.Address != "" {
		tlsProps := shim.TLSProperties{Disabled: !cfg.Chaincode.TLSEnabled}
		if cfg.Chaincode.TLSEnabled {
			cert, err := os.ReadFile(cfg.Chaincode.CertFile)
			if err != nil {
				log.Panicf("Error reading TLS certificate: %v", err)
			}
			key, err := os.ReadFile(cfg.Chaincode.KeyFile)
			if err != nil {
				log.Panicf("Error reading TLS key: %v", err)
			}
			tlsProps.Cert = cert
			tlsProps.Key = key
		}

		server := &shim.ChaincodeServer{
			CCID:     cfg.Chaincode.ID,
			Address:  cfg.Chaincode.Address,
			CC:       chaincode,
			TLSProps: tlsProps,
		}

		logg.WithComponent("main").WithField("address", cfg.Chaincode.Address).
			Info("starting chaincode server")
		if err := server.Start(); err != nil {
			log.Panicf("Error starting insurance claim chaincode server: %v", err)
		}
		return
	}

	if err := chaincode.Start(); err != nil {
		log.Panicf("Error starting insurance claim chaincode: %v", err)
	}
}
